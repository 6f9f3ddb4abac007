package model

import (
	"encoding/gob"
	"io"
	"os"

	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

// FormatVersion はgobファイルの先頭に書き込まれるフォーマット番号
const FormatVersion = 1

// header はgobストリームの先頭に置かれ、読み込み時の互換性チェックに使う
type header struct {
	Format    int
	ModelType string
}

// SaveModel はモデルをファイルに保存する
//
// パラメータ:
//   - modelType: モデルの種類 ("MKLClassifier" 等)。読み込み時に照合される
//   - model: 保存するモデル（エクスポートされたフィールドのみ保存される）
//   - filename: 保存先のファイルパス
//
// 使用例:
//
//	m, _ := clf.Model()
//	err := model.SaveModel("MKLClassifier", m, "model.gob")
func SaveModel(modelType string, model interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return scierrors.NewModelError("SaveModel", "create file", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = scierrors.NewModelError("SaveModel", "close file", cerr)
		}
	}()

	return SaveModelToWriter(modelType, model, file)
}

// LoadModel はファイルからモデルを読み込む
//
// 保存時と異なるmodelTypeを指定した場合はModelErrorを返す。
//
// 使用例:
//
//	var m mkl.Model
//	err := model.LoadModel("MKLClassifier", &m, "model.gob")
func LoadModel(modelType string, model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return scierrors.NewModelError("LoadModel", "open file", err)
	}
	defer file.Close()

	return LoadModelFromReader(modelType, model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(modelType string, model interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(header{Format: FormatVersion, ModelType: modelType}); err != nil {
		return scierrors.NewModelError("SaveModel", "encode header", err)
	}
	if err := encoder.Encode(model); err != nil {
		return scierrors.NewModelError("SaveModel", "encode model", err)
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(modelType string, model interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)

	var h header
	if err := decoder.Decode(&h); err != nil {
		return scierrors.NewModelError("LoadModel", "decode header", err)
	}
	if h.Format != FormatVersion {
		return scierrors.NewModelError("LoadModel",
			"unsupported format", scierrors.Newf("got %d, want %d", h.Format, FormatVersion))
	}
	if h.ModelType != modelType {
		return scierrors.NewModelError("LoadModel",
			"model type mismatch", scierrors.Newf("file holds %q, want %q", h.ModelType, modelType))
	}
	if err := decoder.Decode(model); err != nil {
		return scierrors.NewModelError("LoadModel", "decode model", err)
	}
	return nil
}

// PeekModelType はストリームの先頭を読み、保存されているモデルの種類を返す
func PeekModelType(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", scierrors.NewModelError("PeekModelType", "open file", err)
	}
	defer file.Close()

	var h header
	if err := gob.NewDecoder(file).Decode(&h); err != nil {
		return "", scierrors.NewModelError("PeekModelType", "decode header", err)
	}
	return h.ModelType, nil
}
