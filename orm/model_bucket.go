package orm

import (
	"bytes"
	"encoding/hex"
	"reflect"
	"regexp"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,20}$`).MatchString

// Indexer calculates the secondary index value of a model. Returning a nil
// value excludes the model from the index.
type Indexer func(Model) ([]byte, error)

// ModelBucket stores Models of a single type under a common key prefix. It
// can maintain secondary indexes and assign primary keys from a sequence.
type ModelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	seq     *Sequence
	indexes map[string]index
}

type index struct {
	name    string
	prefix  []byte
	unique  bool
	indexer Indexer
}

// ModelBucketOption configures optional ModelBucket functionality.
type ModelBucketOption func(*ModelBucket)

// WithIDSequence assigns primary keys from the given sequence whenever Put is
// called with a nil key.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(mb *ModelBucket) {
		mb.seq = &s
	}
}

// WithIndex adds a secondary index to the bucket. A unique index rejects a
// second model with the same index value with ErrDuplicate.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *ModelBucket) {
		if !isBucketName(name) {
			panic("invalid index name: " + name)
		}
		if _, ok := mb.indexes[name]; ok {
			panic("duplicated index: " + name)
		}
		mb.indexes[name] = index{
			name:    name,
			prefix:  []byte("_i." + mb.name + "_" + name + ":"),
			unique:  unique,
			indexer: indexer,
		}
	}
}

// NewModelBucket returns a bucket that stores models of the same type as the
// given example under keys prefixed with "<name>:". It panics on a malformed
// name, because buckets are declared during program startup.
func NewModelBucket(name string, example Model, opts ...ModelBucketOption) *ModelBucket {
	if !isBucketName(name) {
		panic("invalid bucket name: " + name)
	}
	tp := reflect.TypeOf(example)
	if tp.Kind() != reflect.Ptr {
		panic("model must be a pointer")
	}
	mb := &ModelBucket{
		name:    name,
		prefix:  []byte(name + ":"),
		model:   tp.Elem(),
		indexes: make(map[string]index),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

// Name returns the bucket name.
func (mb *ModelBucket) Name() string {
	return mb.name
}

func (mb *ModelBucket) dbKey(key []byte) []byte {
	return append(append([]byte{}, mb.prefix...), key...)
}

// One loads the model stored under the given primary key into dest. It
// returns ErrNotFound if nothing is stored under that key.
func (mb *ModelBucket) One(db nftmarket.ReadOnlyKVStore, key []byte, dest Model) error {
	if err := mb.checkDest(dest); err != nil {
		return err
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	if err := proto.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot unmarshal %s: %s", mb.name, err)
	}
	return nil
}

// Has returns nil if a model exists under the given key and ErrNotFound
// otherwise.
func (mb *ModelBucket) Has(db nftmarket.ReadOnlyKVStore, key []byte) error {
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	return nil
}

// Put validates and saves the model. When key is nil and the bucket was
// created with an ID sequence, the next sequence value is used. The key
// the model was stored under is returned.
func (mb *ModelBucket) Put(db nftmarket.KVStore, key []byte, m Model) ([]byte, error) {
	if err := mb.checkDest(m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}

	if key == nil {
		if mb.seq == nil {
			return nil, errors.Wrap(errors.ErrEmpty, "key is required")
		}
		next, err := mb.seq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "next id")
		}
		key = next
	}

	if len(mb.indexes) > 0 {
		var prev Model
		if ok, err := db.Has(mb.dbKey(key)); err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		} else if ok {
			prev = reflect.New(mb.model).Interface().(Model)
			if err := mb.One(db, key, prev); err != nil {
				return nil, err
			}
		}
		if err := mb.updateIndexes(db, key, prev, m); err != nil {
			return nil, err
		}
	}

	raw, err := proto.Marshal(m)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "cannot marshal %s: %s", mb.name, err)
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return key, nil
}

// Delete removes the model stored under the given key together with its
// index entries. It returns ErrNotFound if there is nothing to delete.
func (mb *ModelBucket) Delete(db nftmarket.KVStore, key []byte) error {
	prev := reflect.New(mb.model).Interface().(Model)
	if err := mb.One(db, key, prev); err != nil {
		return err
	}
	if err := mb.updateIndexes(db, key, prev, nil); err != nil {
		return err
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// IterAll returns an iterator over all models of this bucket in primary key
// order. The iterator must be released.
func (mb *ModelBucket) IterAll(db nftmarket.ReadOnlyKVStore) (*ModelIterator, error) {
	it, err := db.Iterator(prefixRange(mb.prefix))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return &ModelIterator{it: it, prefix: mb.prefix}, nil
}

// IndexKeys returns the primary keys of all models indexed under value in
// the named index, in primary key order.
func (mb *ModelBucket) IndexKeys(db nftmarket.ReadOnlyKVStore, indexName string, value []byte) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidIndex, "%s has no index %q", mb.name, indexName)
	}
	prefix := idx.valuePrefix(value)
	it, err := db.Iterator(prefixRange(prefix))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	defer it.Release()

	var keys [][]byte
	for {
		k, _, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return keys, nil
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		keys = append(keys, append([]byte{}, k[len(prefix):]...))
	}
}

// ByIndex loads all models indexed under value in the named index into
// dest, which must be a pointer to a slice of this bucket's model type or a
// pointer to it. Primary keys are returned in the same order.
func (mb *ModelBucket) ByIndex(db nftmarket.ReadOnlyKVStore, indexName string, value []byte, dest ModelSlicePtr) ([][]byte, error) {
	keys, err := mb.IndexKeys(db, indexName, value)
	if err != nil {
		return nil, err
	}

	slice := reflect.ValueOf(dest)
	if slice.Kind() != reflect.Ptr || slice.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrapf(errors.ErrType, "%T is not a pointer to a slice", dest)
	}
	elemType := slice.Elem().Type().Elem()
	byPtr := elemType.Kind() == reflect.Ptr
	if (byPtr && elemType.Elem() != mb.model) || (!byPtr && elemType != mb.model) {
		return nil, errors.Wrapf(errors.ErrType, "%T cannot hold %s", dest, mb.model)
	}

	res := reflect.MakeSlice(slice.Elem().Type(), 0, len(keys))
	for _, key := range keys {
		m := reflect.New(mb.model)
		if err := mb.One(db, key, m.Interface().(Model)); err != nil {
			return nil, errors.Wrapf(err, "index %s points to a missing model", indexName)
		}
		if byPtr {
			res = reflect.Append(res, m)
		} else {
			res = reflect.Append(res, m.Elem())
		}
	}
	slice.Elem().Set(res)
	return keys, nil
}

func (mb *ModelBucket) checkDest(m Model) error {
	if m == nil || reflect.TypeOf(m) != reflect.PtrTo(mb.model) {
		return errors.Wrapf(errors.ErrType, "%T cannot be represented as %s", m, mb.model)
	}
	return nil
}

// updateIndexes checks all unique constraints before writing any index
// entry, so a rejected model leaves the indexes untouched.
func (mb *ModelBucket) updateIndexes(db nftmarket.KVStore, key []byte, prev, next Model) error {
	changes := make([]indexChange, 0, len(mb.indexes))
	for _, idx := range mb.indexes {
		ch, err := idx.change(db, prev, next)
		if err != nil {
			return errors.Wrapf(err, "index %s", idx.name)
		}
		changes = append(changes, ch)
	}
	for _, ch := range changes {
		if err := ch.apply(db, key); err != nil {
			return errors.Wrapf(err, "index %s", ch.idx.name)
		}
	}
	return nil
}

// valuePrefix is hex encoded so that no value is a prefix of another value
// once the separator is appended.
func (idx index) valuePrefix(value []byte) []byte {
	p := append([]byte{}, idx.prefix...)
	p = append(p, []byte(hex.EncodeToString(value))...)
	return append(p, ':')
}

type indexChange struct {
	idx           index
	before, after []byte
	noop          bool
}

func (idx index) change(db nftmarket.ReadOnlyKVStore, prev, next Model) (indexChange, error) {
	ch := indexChange{idx: idx}
	if prev != nil {
		v, err := idx.indexer(prev)
		if err != nil {
			return ch, err
		}
		ch.before = v
	}
	if next != nil {
		v, err := idx.indexer(next)
		if err != nil {
			return ch, err
		}
		ch.after = v
	}
	if prev != nil && next != nil && bytes.Equal(ch.before, ch.after) {
		ch.noop = true
		return ch, nil
	}
	if ch.after != nil && idx.unique {
		if taken, err := idx.hasAny(db, ch.after); err != nil {
			return ch, err
		} else if taken {
			return ch, errors.Wrapf(errors.ErrDuplicate, "value %X", ch.after)
		}
	}
	return ch, nil
}

func (ch indexChange) apply(db nftmarket.KVStore, key []byte) error {
	if ch.noop {
		return nil
	}
	if ch.before != nil {
		if err := db.Delete(append(ch.idx.valuePrefix(ch.before), key...)); err != nil {
			return errors.Wrap(errors.ErrDatabase, err.Error())
		}
	}
	if ch.after != nil {
		if err := db.Set(append(ch.idx.valuePrefix(ch.after), key...), []byte{}); err != nil {
			return errors.Wrap(errors.ErrDatabase, err.Error())
		}
	}
	return nil
}

func (idx index) hasAny(db nftmarket.ReadOnlyKVStore, value []byte) (bool, error) {
	it, err := db.Iterator(prefixRange(idx.valuePrefix(value)))
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	defer it.Release()
	_, _, err = it.Next()
	switch {
	case errors.ErrIteratorDone.Is(err):
		return false, nil
	case err != nil:
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return true, nil
}

// prefixRange turns a prefix into a (start, end) range. The end is the
// smallest key greater than every key with this prefix.
func prefixRange(prefix []byte) ([]byte, []byte) {
	start := append([]byte{}, prefix...)
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return start, end[:i+1]
		}
	}
	return start, nil
}
