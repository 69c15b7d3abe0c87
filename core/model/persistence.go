package model

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

// Codec はモデルファイルの圧縮形式
type Codec int

const (
	// CodecZstd はzstdストリーム（既定）
	CodecZstd Codec = iota
	// CodecLZ4 はLZ4フレーム
	CodecLZ4
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// String は圧縮形式の名前を返す
func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// CodecForPath はファイル拡張子から圧縮形式を選ぶ。".lz4" 以外はzstd
func CodecForPath(filename string) Codec {
	if strings.EqualFold(filepath.Ext(filename), ".lz4") {
		return CodecLZ4
	}
	return CodecZstd
}

// SaveModel はモデルを圧縮したgob形式でファイルに保存する
//
// パラメータ:
//   - model: 保存する値（通常は *ModelWeights）
//   - filename: 保存先のファイルパス。拡張子 ".lz4" ならLZ4、それ以外はzstd
//
// 使用例:
//
//	w, err := m.ExportWeights()
//	err = model.SaveModel(w, "model.gob.zst")
func SaveModel(model interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return scigoErrors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = scigoErrors.Wrap(cerr, "failed to close file")
		}
	}()
	return SaveModelToWriterWith(model, file, CodecForPath(filename))
}

// LoadModel はSaveModelで保存したファイルからモデルを読み込む。
// 圧縮形式はファイル先頭のマジックナンバーで判定する
//
// 使用例:
//
//	var w model.ModelWeights
//	err := model.LoadModel(&w, "model.gob.zst")
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return scigoErrors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをzstd圧縮したgob形式でio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	return SaveModelToWriterWith(model, w, CodecZstd)
}

// SaveModelToWriterWith は指定した圧縮形式でモデルをio.Writerに保存する
func SaveModelToWriterWith(model interface{}, w io.Writer, codec Codec) error {
	if mw, ok := model.(*ModelWeights); ok {
		mw.Seal()
	}

	var cw io.WriteCloser
	switch codec {
	case CodecZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return scigoErrors.Wrap(err, "failed to create zstd encoder")
		}
		cw = zw
	case CodecLZ4:
		cw = lz4.NewWriter(w)
	default:
		return scigoErrors.NewValueError("SaveModel", "unknown codec "+codec.String())
	}

	if err := gob.NewEncoder(cw).Encode(model); err != nil {
		_ = cw.Close()
		return scigoErrors.Wrap(err, "failed to encode model")
	}
	if err := cw.Close(); err != nil {
		return scigoErrors.Wrapf(err, "failed to flush %s stream", codec)
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む。
// *ModelWeights の場合は読み込み後に検証する
func LoadModelFromReader(model interface{}, r io.Reader) error {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil {
		return scigoErrors.Wrap(err, "failed to read model header")
	}

	var src io.Reader
	switch {
	case bytes.Equal(head, zstdMagic):
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return scigoErrors.Wrap(err, "failed to create zstd decoder")
		}
		defer zr.Close()
		src = zr
	case bytes.Equal(head, lz4Magic):
		src = lz4.NewReader(br)
	default:
		return scigoErrors.NewValueError("LoadModel", "unrecognized compression header")
	}

	if err := gob.NewDecoder(src).Decode(model); err != nil {
		return scigoErrors.Wrap(err, "failed to decode model")
	}
	if mw, ok := model.(*ModelWeights); ok {
		return mw.Validate()
	}
	return nil
}
