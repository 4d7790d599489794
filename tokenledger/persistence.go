package tokenledger

import (
	"bytes"
	"encoding/gob"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
)

// versionKey and stateKey are the two keys the ledger's snapshot lives
// under, mirroring original_source/src/wallet/token.cpp's Load/Flush
// single-record 'v'/'s' layout.
var (
	versionKey = []byte("v")
	stateKey   = []byte("s")
)

// store wraps the goleveldb handle backing a ledger's persisted snapshot.
//
// Grounded on kaspad's database2/ffldb/leveldb.LevelDB: open-with-recovery
// shape reused verbatim, generalized from a block store to a single
// snapshot record.
type store struct {
	db *leveldb.DB
}

func openStore(dataDir string) (*store, error) {
	dbPath := filepath.Join(dataDir, "tokens")
	db, err := leveldb.OpenFile(dbPath, nil)
	if _, corrupted := err.(*ldberrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(dbPath, nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to open token ledger store")
	}
	return &store{db: db}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// load reads the persisted snapshot, migrating a legacy stateV2 record to
// the current shape if needed. It returns (nil, nil) if nothing has ever
// been flushed.
func (s *store) load() (*state, error) {
	versionBytes, err := s.db.Get(versionKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read ledger version")
	}
	var version uint32
	if err := gob.NewDecoder(bytes.NewReader(versionBytes)).Decode(&version); err != nil {
		return nil, errors.Wrap(err, "failed to decode ledger version")
	}

	stateBytes, err := s.db.Get(stateKey, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read ledger state")
	}

	if version >= tokenDBVersion {
		st := &state{}
		if err := gob.NewDecoder(bytes.NewReader(stateBytes)).Decode(st); err != nil {
			return nil, errors.Wrap(err, "failed to decode ledger state")
		}
		return st, nil
	}

	old := &stateV2{}
	if err := gob.NewDecoder(bytes.NewReader(stateBytes)).Decode(old); err != nil {
		return nil, errors.Wrap(err, "failed to decode legacy ledger state")
	}
	upgraded := upgradeFromV2(old)
	if err := s.save(upgraded); err != nil {
		return nil, errors.Wrap(err, "failed to persist upgraded ledger state")
	}
	return upgraded, nil
}

func (s *store) save(st *state) error {
	st.Version = tokenDBVersion

	versionBuf := &bytes.Buffer{}
	if err := gob.NewEncoder(versionBuf).Encode(st.Version); err != nil {
		return errors.Wrap(err, "failed to encode ledger version")
	}
	stateBuf := &bytes.Buffer{}
	if err := gob.NewEncoder(stateBuf).Encode(st); err != nil {
		return errors.Wrap(err, "failed to encode ledger state")
	}

	batch := new(leveldb.Batch)
	batch.Put(versionKey, versionBuf.Bytes())
	batch.Put(stateKey, stateBuf.Bytes())
	return s.db.Write(batch, nil)
}
