package gconf

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/errors"
)

// ReadStore is a subset of nftmarket.ReadOnlyKVStore.
type ReadStore interface {
	Get([]byte) ([]byte, error)
}

// Store is a subset of nftmarket.KVStore.
type Store interface {
	ReadStore
	Set([]byte, []byte) error
}

// Configuration is implemented by all configuration messages. It is a
// protobuf message that can validate itself.
type Configuration interface {
	proto.Message
	Validate() error
}

// OwnedConfig must have an Owner field. A configuration change must be
// authorized by the owner in order to be applied.
type OwnedConfig interface {
	Configuration
	GetOwner() nftmarket.Address
}

func configKey(pkg string) []byte {
	return []byte("_c:" + pkg)
}

// Save will Validate the object, before writing it to a special "configuration"
// singleton for that package name.
func Save(db Store, pkg string, src Configuration) error {
	key := configKey(pkg)
	if err := src.Validate(); err != nil {
		return errors.Wrapf(err, "validation: key %q", key)
	}
	raw, err := proto.Marshal(src)
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "marshal: key %q: %s", key, err)
	}
	return db.Set(key, raw)
}

// Load reads the configuration singleton of the given package into dst.
// ErrNotFound is returned if the configuration was never saved.
func Load(db ReadStore, pkg string, dst Configuration) error {
	key := configKey(pkg)
	raw, err := db.Get(key)
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "key %q", key)
	}
	if err := proto.Unmarshal(raw, dst); err != nil {
		return errors.Wrapf(errors.ErrModel, "unmarshal: key %q: %s", key, err)
	}
	return nil
}

// Update loads the owned configuration of the given package into conf,
// ensures that signer is its owner, applies the change and saves the
// result. A change that leaves the configuration invalid is rejected.
func Update(db Store, pkg string, conf OwnedConfig, signer nftmarket.Address, change func(OwnedConfig) error) error {
	if err := Load(db, pkg, conf); err != nil {
		return errors.Wrap(err, "load configuration")
	}
	if !conf.GetOwner().Equals(signer) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not the %s configuration owner", signer, pkg)
	}
	if err := change(conf); err != nil {
		return err
	}
	return Save(db, pkg, conf)
}

// InitConfig will take opts["conf"][pkg], parse it into the given Configuration object
// validate it, and store under the proper key in the database
// Returns an error if anything goes wrong
func InitConfig(db Store, opts nftmarket.Options, pkg string, conf Configuration) error {
	var confOptions nftmarket.Options
	if err := opts.ReadOptions("conf", &confOptions); err != nil {
		return errors.Wrap(err, "read conf")
	}
	if confOptions[pkg] == nil {
		return errors.Wrapf(errors.ErrNotFound, "no configuration in genesis for %q package", pkg)
	}
	if err := confOptions.ReadOptions(pkg, conf); err != nil {
		return errors.Wrapf(err, "read configuration for %s", pkg)
	}
	if err := Save(db, pkg, conf); err != nil {
		return errors.Wrapf(err, "save configuration for %s", pkg)
	}
	return nil
}
