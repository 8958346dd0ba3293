package types

// InvType identifies what kind of object an InvVector names.
type InvType uint32

const (
	InvTypeTx     InvType = 0x2b
	InvTypeBlock  InvType = 0x2c
	InvTypeHeader InvType = 0x2d
)

// InvVector names one advertised or requested object by type and hash. It
// is the unit of work the task scheduler tracks per peer; how it travels
// the wire is a transport concern outside this package.
type InvVector struct {
	Type InvType
	Hash UInt256
}

func (v InvVector) Equals(o InvVector) bool {
	return v.Type == o.Type && v.Hash.Equals(o.Hash)
}
