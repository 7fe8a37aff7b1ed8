package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// ArgFromTraversal converts a call argument written as a traversal into an
// Arg. The root name is the caller parameter and each attribute step peels
// one constructor: `n.pred.pred` is parameter n with peel 2.
func ArgFromTraversal(t hcl.Traversal) (Arg, error) {
	if len(t) == 0 || t.IsRelative() {
		return Arg{}, fmt.Errorf("argument must start with a parameter name")
	}
	arg := Arg{Param: t.RootName()}
	for _, step := range t[1:] {
		if _, ok := step.(hcl.TraverseAttr); !ok {
			return Arg{}, fmt.Errorf("argument %s: only attribute steps are allowed", t.SourceRange())
		}
		arg.Peel++
	}
	return arg, nil
}
