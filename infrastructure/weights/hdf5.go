// Package weights persists network parameters as an HDF5 file, one dataset
// per tensor.
package weights

import (
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/hdf5"

	"digitlens-go/infrastructure/network"
)

// ErrNotFound is returned when the weights file does not exist.
var ErrNotFound = errors.New("weights file not found")

// Save writes params to path, replacing any existing file.
func Save(path string, params []network.Param) error {
	if err := network.ValidateParams(params); err != nil {
		return err
	}

	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	for _, p := range params {
		if err := writeDataset(f, p); err != nil {
			return fmt.Errorf("write %s: %w", p.Name, err)
		}
	}
	return f.Flush(hdf5.F_SCOPE_GLOBAL)
}

func writeDataset(f *hdf5.File, p network.Param) error {
	dims := make([]uint, len(p.Shape))
	for i, d := range p.Shape {
		dims[i] = uint(d)
	}
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return err
	}
	defer space.Close()

	dset, err := f.CreateDataset(p.Name, hdf5.T_NATIVE_DOUBLE, space)
	if err != nil {
		return err
	}
	defer dset.Close()

	data := p.Data
	return dset.Write(&data)
}

// Load reads the parameters named by network.Layout from path.
func Load(path string) ([]network.Param, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	params := network.Layout()
	for i := range params {
		if err := readDataset(f, &params[i]); err != nil {
			return nil, fmt.Errorf("read %s: %w", params[i].Name, err)
		}
	}
	if err := network.ValidateParams(params); err != nil {
		return nil, err
	}
	return params, nil
}

func readDataset(f *hdf5.File, p *network.Param) error {
	dset, err := f.OpenDataset(p.Name)
	if err != nil {
		return err
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return err
	}
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}
	p.Shape = shape

	data := make([]float64, space.SimpleExtentNPoints())
	if err := dset.Read(&data); err != nil {
		return err
	}
	p.Data = data
	return nil
}
