package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/tyckorder/internal/config"
)

// fileRoot decodes the top-level attributes of a program file. Declaration
// blocks are left in Remain so they can be read in source order.
type fileRoot struct {
	Imports []string `hcl:"imports,optional"`
	Remain  hcl.Body `hcl:",remain"`
}

// declBody is the content of any declaration block.
type declBody struct {
	Params  []string     `hcl:"params,optional"`
	Head    []string     `hcl:"head,optional"`
	Body    []string     `hcl:"body,optional"`
	Partial bool         `hcl:"partial,optional"`
	Fail    string       `hcl:"fail,optional"`
	Blame   []string     `hcl:"blame,optional"`
	Of      string       `hcl:"of,optional"`
	Calls   []*callBlock `hcl:"call,block"`
}

// callBlock is a `call "callee" { args = [...] }` block inside a function.
type callBlock struct {
	Callee string         `hcl:"callee,label"`
	Args   hcl.Expression `hcl:"args,optional"`
}

func declSchema() *hcl.BodySchema {
	s := &hcl.BodySchema{}
	for _, kind := range config.Kinds {
		s.Blocks = append(s.Blocks, hcl.BlockHeaderSchema{Type: kind, LabelNames: []string{"name"}})
	}
	return s
}
