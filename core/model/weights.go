package model

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Masterminds/semver/v3"
	"github.com/cespare/xxhash/v2"

	"github.com/YuminosukeSato/pspline/basis"
	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

// FormatVersion はModelWeightsの書式バージョン。
// メジャーバージョンが一致するものだけを読み込める
const FormatVersion = "1.0.0"

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType はモデルの種類（PSplines等）
	ModelType string `json:"model_type"`

	// Version は書式のバージョン（互換性チェック用）
	Version string `json:"version"`

	// Bases は次元ごとの基底パラメータ
	Bases []basis.Params `json:"bases"`

	// Penalty は次元ごとの平滑化パラメータ
	Penalty []float64 `json:"penalty"`

	// PenaltyOrder は差分ペナルティの階数
	PenaltyOrder int `json:"penalty_order"`

	// Coefficients は係数テンソルを行優先で平坦化したもの
	Coefficients []float64 `json:"coefficients"`

	// Shape は係数テンソルの形状 (m_1, ..., m_K)
	Shape []int `json:"shape"`

	// 1次元モデルの診断量。誤差伝播にはInvMatが必要
	EffDim      float64   `json:"eff_dim,omitempty"`
	Roughness   float64   `json:"roughness,omitempty"`
	ResidualStd float64   `json:"residual_std,omitempty"`
	InvMat      []float64 `json:"inv_mat,omitempty"`

	// Metadata は追加のメタデータ（推定器ID、学習時刻等）
	Metadata map[string]string `json:"metadata,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`

	// Checksum は数値フィールドのxxhash (16進)
	Checksum string `json:"checksum"`
}

// ComputeChecksum は数値フィールドのチェックサムを計算する
func (mw *ModelWeights) ComputeChecksum() string {
	h := xxhash.New()
	var buf [8]byte
	putInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		_, _ = h.Write(buf[:])
	}
	putFloats := func(vs []float64) {
		putInt(len(vs))
		for _, v := range vs {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = h.Write(buf[:])
		}
	}

	_, _ = h.WriteString(mw.ModelType)
	putInt(len(mw.Bases))
	for _, b := range mw.Bases {
		putFloats([]float64{b.DomainMin, b.DomainMax})
		putInt(b.Segments)
		putInt(b.Degree)
	}
	putFloats(mw.Penalty)
	putInt(mw.PenaltyOrder)
	putFloats(mw.Coefficients)
	putInt(len(mw.Shape))
	for _, s := range mw.Shape {
		putInt(s)
	}
	putFloats([]float64{mw.EffDim, mw.Roughness, mw.ResidualStd})
	putFloats(mw.InvMat)
	return fmt.Sprintf("%016x", h.Sum64())
}

// Seal はチェックサムを設定する
func (mw *ModelWeights) Seal() {
	mw.Checksum = mw.ComputeChecksum()
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	mw.Seal()
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズし、検証する
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return scigoErrors.Wrap(err, "ModelWeights.FromJSON")
	}
	return mw.Validate()
}

// CheckVersion はVersionがFormatVersionと同じメジャーバージョンかを検証する
func (mw *ModelWeights) CheckVersion() error {
	v, err := semver.NewVersion(mw.Version)
	if err != nil {
		return scigoErrors.NewConfigError("ModelWeights", "version", "not a semantic version", mw.Version)
	}
	current := semver.MustParse(FormatVersion)
	c, err := semver.NewConstraint(fmt.Sprintf("^%d.0.0", current.Major()))
	if err != nil {
		return scigoErrors.Wrap(err, "ModelWeights.CheckVersion")
	}
	if !c.Check(v) {
		return scigoErrors.NewConfigError("ModelWeights", "version", fmt.Sprintf("incompatible with format %s", FormatVersion), mw.Version)
	}
	return nil
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return scigoErrors.NewConfigError("ModelWeights", "model_type", "is required", mw.ModelType)
	}
	if mw.Version == "" {
		return scigoErrors.NewConfigError("ModelWeights", "version", "is required", mw.Version)
	}
	if err := mw.CheckVersion(); err != nil {
		return err
	}

	if !mw.IsFitted {
		if len(mw.Coefficients) > 0 {
			return scigoErrors.NewValueError("ModelWeights", "unfitted model should not have coefficients")
		}
		return nil
	}
	if len(mw.Coefficients) == 0 {
		return scigoErrors.NewValueError("ModelWeights", "fitted model must have coefficients")
	}
	if len(mw.Shape) != len(mw.Bases) {
		return scigoErrors.NewDimensionError("ModelWeights", len(mw.Bases), len(mw.Shape), 0)
	}
	size := 1
	for i, b := range mw.Bases {
		if err := b.Validate(); err != nil {
			return err
		}
		if mw.Shape[i] != b.NFunctions() {
			return scigoErrors.NewDimensionError("ModelWeights", b.NFunctions(), mw.Shape[i], i)
		}
		size *= mw.Shape[i]
	}
	if len(mw.Coefficients) != size {
		return scigoErrors.NewDimensionError("ModelWeights", size, len(mw.Coefficients), 0)
	}
	if n := len(mw.InvMat); n > 0 && n != size*size {
		return scigoErrors.NewDimensionError("ModelWeights", size*size, n, 0)
	}
	if mw.Checksum != "" && mw.Checksum != mw.ComputeChecksum() {
		return scigoErrors.NewValueError("ModelWeights", fmt.Sprintf("checksum mismatch: stored %s, computed %s", mw.Checksum, mw.ComputeChecksum()))
	}
	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := *mw
	clone.Bases = append([]basis.Params(nil), mw.Bases...)
	clone.Penalty = append([]float64(nil), mw.Penalty...)
	clone.Coefficients = append([]float64(nil), mw.Coefficients...)
	clone.Shape = append([]int(nil), mw.Shape...)
	clone.InvMat = append([]float64(nil), mw.InvMat...)
	if mw.Metadata != nil {
		clone.Metadata = make(map[string]string, len(mw.Metadata))
		for k, v := range mw.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
