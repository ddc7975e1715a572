// Package hcl implements config.Loader and config.Converter for pipeline
// files written in HCL.
//
// A pipeline is described by one `pipeline` block, any number of `resource`
// blocks and `task` blocks, possibly spread over several files:
//
//	pipeline {
//	  final = "final"
//	}
//
//	task "tonemap" {
//	  kind     = "tonemap"
//	  requires = ["lit"]
//	  output "final" {
//	    create = "external"
//	    order  = "last"
//	  }
//	  arguments {
//	    exposure = 1.2
//	  }
//	}
//
// Arguments are evaluated with a `pipeline` variable in scope, so a task can
// refer to `pipeline.width` or `pipeline.height`.
package hcl
