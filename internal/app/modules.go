package app

import (
	"github.com/vk/framegraph/internal/registry"
	"github.com/vk/framegraph/modules/passes"
	"github.com/vk/framegraph/modules/surface"
	"github.com/vk/framegraph/modules/swapframe"
)

// coreModules is the definitive list of all modules that are compiled into
// the framegraph binary.
var coreModules = []registry.Module{
	&surface.Module{},
	&swapframe.Module{},
	&passes.Module{},
}
