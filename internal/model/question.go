package model

// Question is one prompt from the static bank. Prompt may contain a {movie}
// placeholder that is substituted when the question is served.
type Question struct {
	Key          string `json:"key"`
	Phase        Phase  `json:"phase"`
	Category     string `json:"category,omitempty"`
	Prompt       string `json:"prompt"`
	Hint         string `json:"hint,omitempty"`
	ExampleGood  string `json:"exampleGood,omitempty"`
	ExampleVague string `json:"exampleVague,omitempty"`
}
