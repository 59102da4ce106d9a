package orm

import (
	"github.com/gogo/protobuf/proto"
)

// Model is implemented by any entity that can be stored using ModelBucket.
// Models are serialized with protobuf and must validate before they are
// written.
type Model interface {
	proto.Message
	Validate() error
}

// ModelSlicePtr is a pointer to a slice of Model implementations, for
// example *[]MarketItem or *[]*MarketItem. It is used as a destination when
// loading more than one model.
type ModelSlicePtr interface{}
