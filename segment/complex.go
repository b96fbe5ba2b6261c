package segment

import (
	"fmt"
	"sync"

	"github.com/retailnext/hllpp"
)

// HyperUniqueTypeName is the complex type name of HyperLogLog++ sketches.
const HyperUniqueTypeName = "hyperUnique"

// ComplexSerde converts the values of a complex column to and from their
// serialized form.
type ComplexSerde interface {
	TypeName() string
	Encode(v interface{}) ([]byte, error)
	Decode(b []byte) (interface{}, error)
}

var (
	serdesMu sync.RWMutex
	serdes   = map[string]ComplexSerde{
		HyperUniqueTypeName: hyperUniqueSerde{},
	}
)

// RegisterComplexSerde makes a complex type available to segments. It
// replaces any serde previously registered under the same type name.
func RegisterComplexSerde(s ComplexSerde) {
	serdesMu.Lock()
	defer serdesMu.Unlock()
	serdes[s.TypeName()] = s
}

// LookupComplexSerde returns the serde registered for typeName.
func LookupComplexSerde(typeName string) (ComplexSerde, bool) {
	serdesMu.RLock()
	defer serdesMu.RUnlock()
	s, ok := serdes[typeName]
	return s, ok
}

type hyperUniqueSerde struct{}

func (hyperUniqueSerde) TypeName() string { return HyperUniqueTypeName }

func (hyperUniqueSerde) Encode(v interface{}) ([]byte, error) {
	h, ok := v.(*hllpp.HLLPP)
	if !ok {
		return nil, fmt.Errorf("hyperUnique: cannot encode %T", v)
	}
	return h.Marshal(), nil
}

func (hyperUniqueSerde) Decode(b []byte) (interface{}, error) {
	return hllpp.Unmarshal(b)
}
