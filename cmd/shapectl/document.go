package main

import (
	"github.com/blockberries/shapecraft/pkg/shape"
)

// Document is the fixed example record shapectl operates on. A real
// deployment would generate a type like this from a schema; shapectl
// exercises the library against one concrete shape rather than reaching
// for a schema compiler, which is a separate concern.
type Document struct {
	ID       int64               `shape:"id,required"`
	Name     string              `shape:"name,required"`
	Tags     []string            `shape:"tags"`
	Priority shape.Option[int32] `shape:"priority"`
	Parent   *Document           `shape:"parent"`
}
