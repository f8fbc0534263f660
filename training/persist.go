package training

import (
	"path/filepath"

	"github.com/YuminosukeSato/agriclean/core/model"
)

// Default file names inside the model directory.
const (
	CropModelFile     = "crop_model.gob"
	NeedModelFile     = "irrigation_need.gob"
	QuantityModelFile = "irrigation_quantity.gob"
)

// SaveCropModel writes m to dir/crop_model.gob and returns the path.
func SaveCropModel(m *CropModel, dir string) (string, error) {
	path := filepath.Join(dir, CropModelFile)
	return path, model.SaveModel(m, path)
}

// LoadCropModel reads a crop model written by SaveCropModel.
func LoadCropModel(path string) (*CropModel, error) {
	var m CropModel
	if err := model.LoadModel(&m, path); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveNeedModel writes m to dir/irrigation_need.gob and returns the path.
func SaveNeedModel(m *NeedModel, dir string) (string, error) {
	path := filepath.Join(dir, NeedModelFile)
	return path, model.SaveModel(m, path)
}

// SaveQuantityModel writes m to dir/irrigation_quantity.gob and returns the
// path.
func SaveQuantityModel(m *QuantityModel, dir string) (string, error) {
	path := filepath.Join(dir, QuantityModelFile)
	return path, model.SaveModel(m, path)
}
