package vision

// Request/response shapes for the images:annotate endpoint. Decoded into
// typed structs and validated, never read through map[string]any.

// Feature type identifiers accepted by the provider
const (
	featureLabelDetection     = "LABEL_DETECTION"
	featureObjectLocalization = "OBJECT_LOCALIZATION"
	featureWebDetection       = "WEB_DETECTION"
	featureTextDetection      = "TEXT_DETECTION"
)

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image    imagePayload `json:"image"`
	Features []feature    `json:"features"`
}

type imagePayload struct {
	Content string `json:"content"` // base64-encoded image bytes
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type annotateResponse struct {
	Responses []imageResponse `json:"responses"`
}

type imageResponse struct {
	LabelAnnotations           []entityAnnotation `json:"labelAnnotations,omitempty"`
	LocalizedObjectAnnotations []localizedObject  `json:"localizedObjectAnnotations,omitempty"`
	WebDetection               *webDetection      `json:"webDetection,omitempty"`
	TextAnnotations            []textAnnotation   `json:"textAnnotations,omitempty"`
	Error                      *providerStatus    `json:"error,omitempty"`
}

type entityAnnotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

type localizedObject struct {
	Name         string       `json:"name"`
	Score        float64      `json:"score"`
	BoundingPoly boundingPoly `json:"boundingPoly"`
}

type boundingPoly struct {
	NormalizedVertices []normalizedVertex `json:"normalizedVertices,omitempty"`
}

type normalizedVertex struct {
	// The provider omits zero-valued coordinates, so absent fields decode
	// to 0 and stay valid.
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type webDetection struct {
	WebEntities     []entityAnnotation `json:"webEntities,omitempty"`
	BestGuessLabels []bestGuessLabel   `json:"bestGuessLabels,omitempty"`
}

type bestGuessLabel struct {
	Label string `json:"label"`
}

type textAnnotation struct {
	Description string `json:"description"`
}

type providerStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
