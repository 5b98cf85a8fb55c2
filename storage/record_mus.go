package storage

import (
	"fmt"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/recall/core"
)

// entryRecordVersion leads every stored record.
const entryRecordVersion = 1

// entryRecord is the persisted shape of a journal entry.
// Times are Unix microseconds. Embedding holds the vector in its JSON array
// form and is empty for unembedded entries.
type entryRecord struct {
	Id         core.ID
	Title      string
	Contents   string
	Tags       []string
	Timestamp  int64
	InsertedAt int64
	UpdatedAt  int64
	Embedding  string
	Metadata   map[string]string
}

// entryRecordMUS is the binary codec for entryRecord.
var entryRecordMUS = entryRecordSer{}

var _ mus.Serializer[entryRecord] = entryRecordSer{}

type entryRecordSer struct{}

func (entryRecordSer) Marshal(v entryRecord, bs []byte) (n int) {
	n = varint.Uint64.Marshal(entryRecordVersion, bs)
	n += varint.Uint64.Marshal(uint64(v.Id), bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Contents, bs[n:])
	n += stringsMUS.Marshal(v.Tags, bs[n:])
	n += varint.Int64.Marshal(v.Timestamp, bs[n:])
	n += varint.Int64.Marshal(v.InsertedAt, bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt, bs[n:])
	n += ord.String.Marshal(v.Embedding, bs[n:])
	n += metadataMUS.Marshal(v.Metadata, bs[n:])
	return n
}

func (entryRecordSer) Unmarshal(bs []byte) (v entryRecord, n int, err error) {
	var (
		m       int
		version uint64
		id      uint64
	)
	if version, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	if version != entryRecordVersion {
		err = fmt.Errorf("unknown entry record version %d", version)
		return
	}
	id, m, err = varint.Uint64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Id = core.ID(id)
	v.Title, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Contents, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Tags, m, err = stringsMUS.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Timestamp, m, err = varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.InsertedAt, m, err = varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.UpdatedAt, m, err = varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Embedding, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Metadata, m, err = metadataMUS.Unmarshal(bs[n:])
	n += m
	return
}

func (entryRecordSer) Size(v entryRecord) (size int) {
	size = varint.Uint64.Size(entryRecordVersion)
	size += varint.Uint64.Size(uint64(v.Id))
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Contents)
	size += stringsMUS.Size(v.Tags)
	size += varint.Int64.Size(v.Timestamp)
	size += varint.Int64.Size(v.InsertedAt)
	size += varint.Int64.Size(v.UpdatedAt)
	size += ord.String.Size(v.Embedding)
	size += metadataMUS.Size(v.Metadata)
	return size
}

func (s entryRecordSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// readCount reads a collection length and rejects counts that cannot fit in
// the remaining bytes, so a corrupt record cannot force a huge allocation.
func readCount(bs []byte) (count int, n int, err error) {
	c, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	if c > uint64(len(bs)-n) {
		return 0, n, fmt.Errorf("%w: count %d exceeds %d remaining bytes", ErrTruncatedData, c, len(bs)-n)
	}
	return int(c), n, nil
}

var stringsMUS = stringsSer{}

// stringsSer encodes a string slice as a count followed by its elements.
// An empty slice decodes as nil.
type stringsSer struct{}

func (stringsSer) Marshal(v []string, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func (stringsSer) Unmarshal(bs []byte) (v []string, n int, err error) {
	count, n, err := readCount(bs)
	if err != nil || count == 0 {
		return nil, n, err
	}
	v = make([]string, count)
	for i := range v {
		var m int
		v[i], m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (stringsSer) Size(v []string) (size int) {
	size = varint.Uint64.Size(uint64(len(v)))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

var metadataMUS = metadataSer{}

// metadataSer encodes a string map as a count followed by key/value pairs.
// An empty map decodes as nil.
type metadataSer struct{}

func (metadataSer) Marshal(v map[string]string, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for key, value := range v {
		n += ord.String.Marshal(key, bs[n:])
		n += ord.String.Marshal(value, bs[n:])
	}
	return n
}

func (metadataSer) Unmarshal(bs []byte) (v map[string]string, n int, err error) {
	count, n, err := readCount(bs)
	if err != nil || count == 0 {
		return nil, n, err
	}
	v = make(map[string]string, count)
	for range count {
		var (
			key, value string
			m          int
		)
		key, m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		value, m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[key] = value
	}
	return v, n, nil
}

func (metadataSer) Size(v map[string]string) (size int) {
	size = varint.Uint64.Size(uint64(len(v)))
	for key, value := range v {
		size += ord.String.Size(key) + ord.String.Size(value)
	}
	return size
}
