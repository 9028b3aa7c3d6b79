package domain

// SourceMode identifies which recognition mode produced a candidate
type SourceMode string

const (
	SourceLabel  SourceMode = "label"
	SourceObject SourceMode = "object"
	SourceWeb    SourceMode = "web"
	SourceText   SourceMode = "text"
)

// Candidate is a single scored ingredient-name detection before filtering
type Candidate struct {
	Name   string     `json:"name"`
	Score  float64    `json:"score"` // 0.0 - 1.0
	Source SourceMode `json:"source"`
}

// BoundingBox is an axis-aligned rectangle in normalized [0,1] coordinates
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the normalized horizontal extent of the box
func (b BoundingBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the normalized vertical extent of the box
func (b BoundingBox) Height() float64 {
	return b.Y1 - b.Y0
}

// DetectedRegion is one localized object returned by object detection.
// Regions only live for the orchestration pass that produced them.
type DetectedRegion struct {
	Label string      `json:"label"`
	Score float64     `json:"score"`
	Box   BoundingBox `json:"box"`
}

// IngredientWeight accumulates evidence for one translated ingredient name
// across region crops and detection modes. Count is incremented on every
// sighting; the score fields record the (objectScore, modeScore) pair that
// produced the highest integrated score seen so far.
type IngredientWeight struct {
	Name               string  `json:"name"`
	Count              int     `json:"count"`
	MaxObjectScore     float64 `json:"maxObjectScore"`
	MaxModeScore       float64 `json:"maxModeScore"`
	MaxIntegratedScore float64 `json:"maxIntegratedScore"`
}

// DetectionReport is the orchestrator output: the ranked ingredient names
// plus the per-name weight diagnostics for logging/debugging.
type DetectionReport struct {
	Ingredients []string           `json:"ingredients"`
	Weights     []IngredientWeight `json:"weights,omitempty"`
}

// LabelResult is one scored label from label detection or a web entity
type LabelResult struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// WebResult holds the usable parts of a web detection response
type WebResult struct {
	Entities    []LabelResult `json:"entities"`
	BestGuesses []string      `json:"bestGuesses"`
}

// TextFragment is one OCR text box
type TextFragment struct {
	Text string `json:"text"`
}

// TextResult holds the full recognized text block plus individual fragments
type TextResult struct {
	FullText  string         `json:"fullText"`
	Fragments []TextFragment `json:"fragments"`
}
