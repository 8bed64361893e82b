package database

import (
	"github.com/kaspanet/chainkeeper/domain/chain/model"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database"
)

// MakeBucket creates a new Bucket using the given path of buckets.
func MakeBucket(path ...[]byte) model.DBBucket {
	return newDBBucket(database.MakeBucket(path...))
}

// dbBucketToDatabaseBucket expects buckets created by this package only.
func dbBucketToDatabaseBucket(bucket model.DBBucket) *database.Bucket {
	return bucket.(dbBucket).bucket
}

type dbBucket struct {
	bucket *database.Bucket
}

func (d dbBucket) Bucket(bucketBytes []byte) model.DBBucket {
	return newDBBucket(d.bucket.Bucket(bucketBytes))
}

func (d dbBucket) Key(suffix []byte) model.DBKey {
	return newDBKey(d.bucket.Key(suffix))
}

func (d dbBucket) Path() []byte {
	return d.bucket.Path()
}

func newDBBucket(bucket *database.Bucket) model.DBBucket {
	return dbBucket{bucket: bucket}
}
