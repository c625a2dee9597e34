package bundle

import "slices"

// Preprocessor is the feature bundle produced by the training run: encoders,
// clamp bounds, scaler statistics and the model's selected feature list.
type Preprocessor struct {
	FormatVersion     string             `json:"format_version" yaml:"format_version"`
	Encoders          EncodingTable      `json:"encoders" yaml:"encoders"`
	ClampBounds       ClampBounds        `json:"clamp_bounds,omitempty" yaml:"clamp_bounds,omitempty"`
	Scaler            ScalerParams       `json:"scaler" yaml:"scaler"`
	SelectedFeatures  []string           `json:"selected_features" yaml:"selected_features"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty" yaml:"feature_importance,omitempty"`

	// Source is the file the bundle was read from, empty for in-memory bundles.
	Source string `json:"-" yaml:"-"`
}

// EncodingTable maps a categorical feature to its training classes. A class
// is encoded as its index in the slice.
type EncodingTable map[string][]string

// Classes returns the stored class order for a feature.
func (t EncodingTable) Classes(feature string) ([]string, bool) {
	classes, ok := t[feature]
	return classes, ok
}

// Bounds is a training-time clamp range.
type Bounds struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// ClampBounds maps a numeric feature to its clamp range.
type ClampBounds map[string]Bounds

// ScalerParams holds the fitted robust scaler. Features, Center and Scale are
// parallel slices in the order the scaler was fit.
type ScalerParams struct {
	Features []string  `json:"features" yaml:"features"`
	Center   []float64 `json:"center" yaml:"center"`
	Scale    []float64 `json:"scale" yaml:"scale"`
}

// Index returns the position of a feature in the scaler, or -1.
func (s ScalerParams) Index(feature string) int {
	return slices.Index(s.Features, feature)
}

// Family names a regression estimator family.
type Family string

const (
	FamilyLinear           Family = "linear"
	FamilyRandomForest     Family = "random_forest"
	FamilyGradientBoosting Family = "gradient_boosting"
	FamilyKNN              Family = "knn"
	FamilySVR              Family = "svr"
)

// Families lists every supported estimator family.
var Families = []Family{FamilyLinear, FamilyRandomForest, FamilyGradientBoosting, FamilyKNN, FamilySVR}

// ModelArtifact is the exported trained estimator.
type ModelArtifact struct {
	FormatVersion string   `json:"format_version" yaml:"format_version"`
	ModelName     string   `json:"model_name" yaml:"model_name"`
	Family        Family   `json:"family" yaml:"family"`
	Score         float64  `json:"score" yaml:"score"`
	Features      []string `json:"features,omitempty" yaml:"features,omitempty"`

	Linear    *LinearParams   `json:"linear,omitempty" yaml:"linear,omitempty"`
	Ensemble  *EnsembleParams `json:"ensemble,omitempty" yaml:"ensemble,omitempty"`
	Neighbors *NeighborParams `json:"neighbors,omitempty" yaml:"neighbors,omitempty"`
	SVR       *SVRParams      `json:"svr,omitempty" yaml:"svr,omitempty"`

	Source string `json:"-" yaml:"-"`
}

// LinearParams covers ordinary least squares, ridge, lasso and elastic net.
type LinearParams struct {
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
	Intercept    float64   `json:"intercept" yaml:"intercept"`
}

// EnsembleParams describes a forest or a boosted sequence of regression trees.
type EnsembleParams struct {
	NumFeatures  int        `json:"n_features" yaml:"n_features"`
	Init         float64    `json:"init,omitempty" yaml:"init,omitempty"`
	LearningRate float64    `json:"learning_rate,omitempty" yaml:"learning_rate,omitempty"`
	Trees        []TreeSpec `json:"trees" yaml:"trees"`
}

// TreeSpec is a regression tree in flat array form. Node i is a leaf when
// ChildrenLeft[i] is -1.
type TreeSpec struct {
	ChildrenLeft  []int     `json:"children_left" yaml:"children_left"`
	ChildrenRight []int     `json:"children_right" yaml:"children_right"`
	Feature       []int     `json:"feature" yaml:"feature"`
	Threshold     []float64 `json:"threshold" yaml:"threshold"`
	Value         []float64 `json:"value" yaml:"value"`
}

// NeighborParams is a fitted k-nearest-neighbours regressor.
type NeighborParams struct {
	K       int         `json:"k" yaml:"k"`
	Weights string      `json:"weights,omitempty" yaml:"weights,omitempty"`
	P       float64     `json:"p,omitempty" yaml:"p,omitempty"`
	Points  [][]float64 `json:"points" yaml:"points"`
	Targets []float64   `json:"targets" yaml:"targets"`
}

// SVRParams is a fitted support vector regressor.
type SVRParams struct {
	Kernel         string      `json:"kernel" yaml:"kernel"`
	Gamma          float64     `json:"gamma,omitempty" yaml:"gamma,omitempty"`
	Coef0          float64     `json:"coef0,omitempty" yaml:"coef0,omitempty"`
	Degree         int         `json:"degree,omitempty" yaml:"degree,omitempty"`
	SupportVectors [][]float64 `json:"support_vectors" yaml:"support_vectors"`
	DualCoef       []float64   `json:"dual_coef" yaml:"dual_coef"`
	Intercept      float64     `json:"intercept" yaml:"intercept"`
}

// Validate checks the internal consistency of an in-memory bundle. Zero
// scaler scales are replaced by 1.
func (p *Preprocessor) Validate() error {
	return validatePreprocessor(p)
}

// Validate checks the envelope of an in-memory model artifact.
func (a *ModelArtifact) Validate() error {
	return validateModelEnvelope(a)
}
