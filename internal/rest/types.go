package rest

import "fmt"

// Credentials are attached to every request.
type Credentials struct {
	Token     string
	CSRFToken string
	SessionID string
	Username  string
}

type AlgorithmLaunch struct {
	AlgorithmName string `json:"algorithm_name"`
	MediaQuery    string `json:"media_query"`
}

type PackageCreate struct {
	PackageName  string `json:"package_name"`
	MediaQuery   string `json:"media_query"`
	UseOriginals bool   `json:"use_originals"`
	Annotations  bool   `json:"annotations"`
}

// AttributePatch sets attributes on every media matched by the query. A nil
// value clears the attribute.
type AttributePatch struct {
	Attributes map[string]any `json:"attributes"`
}

type Media struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes"`
}

// Analysis holds the per-type counts returned for a media query.
type Analysis map[string]any

// StatusError is returned by the synchronous reads for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}
