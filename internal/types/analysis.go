package types

import (
	"fmt"
	"strings"
)

// AnalysisKind selects which instruction template a request is rendered with.
type AnalysisKind int

const (
	KindReview AnalysisKind = iota + 1
	KindExplain
	KindOptimize
	KindRefactor
)

// AllKinds lists the analysis kinds in the order the UI presents them.
var AllKinds = []AnalysisKind{KindReview, KindExplain, KindOptimize, KindRefactor}

func (k AnalysisKind) String() string {
	switch k {
	case KindReview:
		return "review"
	case KindExplain:
		return "explain"
	case KindOptimize:
		return "optimize"
	case KindRefactor:
		return "refactor"
	default:
		return fmt.Sprintf("AnalysisKind(%d)", int(k))
	}
}

func (k AnalysisKind) Valid() bool {
	switch k {
	case KindReview, KindExplain, KindOptimize, KindRefactor:
		return true
	}
	return false
}

// ParseAnalysisKind maps a wire identifier onto its kind. Surrounding
// whitespace and letter case are ignored.
func ParseAnalysisKind(s string) (AnalysisKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "review":
		return KindReview, nil
	case "explain":
		return KindExplain, nil
	case "optimize":
		return KindOptimize, nil
	case "refactor":
		return KindRefactor, nil
	default:
		return 0, fmt.Errorf("%w: unsupported analysis type %q", ErrInvalidRequest, s)
	}
}

// AnalysisRequest is the body of POST /analyze.
type AnalysisRequest struct {
	Code     string `json:"code"`
	Type     string `json:"type"`
	Language string `json:"language"`
}

// SessionState is the client-visible view of one analysis session.
type SessionState struct {
	Code     string
	Language string
	Result   string
	Loading  bool
}
