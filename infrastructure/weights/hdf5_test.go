package weights

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"digitlens-go/infrastructure/network"
)

func filledParams() []network.Param {
	params := network.Layout()
	for i := range params {
		params[i].Data = make([]float64, params[i].Size())
		for j := range params[i].Data {
			params[i].Data[j] = float64(i) + float64(j%7)/10
		}
	}
	return params
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mnist_model.h5")
	params := filledParams()

	require.NoError(t, Save(path, params))
	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, params, loaded)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.h5"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSave_RejectsMismatch(t *testing.T) {
	params := filledParams()[:2]
	err := Save(filepath.Join(t.TempDir(), "bad.h5"), params)
	require.ErrorIs(t, err, network.ErrParamMismatch)
}
