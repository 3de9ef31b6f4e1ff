package modkit

import "visitagg/internal/modkit/module"

// Module is the module contract; port lookups live in package module
type Module = module.Module

// Builder constructs a Module from shared deps
type Builder func(Deps) (Module, error)
