package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aexfood/orders/internal/domain/apperr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Name
		wantErr bool
	}{
		{in: "LANCHE", want: Lanche},
		{in: "bebida", want: Bebida},
		{in: "  Sobremesa ", want: Sobremesa},
		{in: "DESCONHECIDA", want: Desconhecida},
		{in: "PIZZA", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.IsNotFound(err, apperr.KindCategory))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAll(t *testing.T) {
	all := All()
	assert.Len(t, all, 7)
	for _, n := range all {
		got, err := Parse(string(n))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}
