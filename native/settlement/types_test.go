package settlement

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nftmarket/native/common"
)

func TestNormalizeCurrency(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "upper", input: "WETH", want: "WETH"},
		{name: "lower", input: "weth", want: "WETH"},
		{name: "mixed", input: "UsDc", want: "USDC"},
		{name: "padded", input: "  dai  ", want: "DAI"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeCurrency(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeCurrencyRejectsEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t"} {
		_, err := NormalizeCurrency(input)
		require.ErrorIs(t, err, common.ErrInvalidInput)
	}
}
