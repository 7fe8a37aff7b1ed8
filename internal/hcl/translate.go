package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/tyckorder/internal/config"
)

// translateDecl converts one declaration block into the agnostic model.
func translateDecl(block *hcl.Block) (*config.Decl, error) {
	var body declBody
	if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
		return nil, fmt.Errorf("%s '%s': %w", block.Type, block.Labels[0], diags)
	}

	d := &config.Decl{
		Kind:    block.Type,
		Name:    block.Labels[0],
		Params:  body.Params,
		Head:    body.Head,
		Body:    body.Body,
		Partial: body.Partial,
		Fail:    body.Fail,
		Blame:   body.Blame,
		Of:      body.Of,
	}
	for _, c := range body.Calls {
		args, err := translateArgs(c.Args)
		if err != nil {
			return nil, fmt.Errorf("%s '%s': call '%s': %w", block.Type, d.Name, c.Callee, err)
		}
		d.Calls = append(d.Calls, &config.Call{Callee: c.Callee, Args: args})
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// translateArgs reads the `args` list of a call block. Traversals become
// parameter arguments and constants such as `0` or `null` are arguments
// unrelated to the caller's parameters.
func translateArgs(expr hcl.Expression) ([]config.Arg, error) {
	exprs, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		// gohcl fills a missing optional expression with a static null.
		if v, valDiags := expr.Value(nil); !valDiags.HasErrors() && v.IsNull() {
			return nil, nil
		}
		return nil, diags
	}

	args := make([]config.Arg, 0, len(exprs))
	for _, e := range exprs {
		if len(e.Variables()) == 0 {
			args = append(args, config.Arg{})
			continue
		}
		trav, travDiags := hcl.AbsTraversalForExpr(e)
		if travDiags.HasErrors() {
			return nil, travDiags
		}
		arg, err := config.ArgFromTraversal(trav)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}
