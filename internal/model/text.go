package model

// Vertex is a point in image pixel space.
// Providers omit zero coordinates, so a missing x or y decodes to 0.
type Vertex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TextFragment is a recognized text token and the quadrilateral enclosing it.
// The quadrilateral is not necessarily axis-aligned.
type TextFragment struct {
	Text     string   `json:"text"`
	Vertices []Vertex `json:"vertices"`
}
