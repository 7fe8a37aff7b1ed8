// Package yamlconf provides the YAML implementation of the program loading
// interface defined in the `config` package.
//
// A YAML program file carries the same fields as its HCL counterpart:
//
//	imports: [nat]
//	decls:
//	  - kind: fn
//	    name: double
//	    params: [n]
//	    head: [Nat]
//	    body: [plus]
//	    calls:
//	      - callee: plus
//	        args: [n, n.pred, _]
//
// Call arguments are parsed with the HCL traversal syntax; `_` is an
// argument unrelated to any parameter.
package yamlconf
