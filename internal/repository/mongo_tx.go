package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"gymdesk/internal/domain"
)

// MongoTxRunner implements domain.TxRunner on a Mongo session transaction.
// Requires a replica set; deployments on standalone Mongo use
// SequentialTxRunner instead.
type MongoTxRunner struct {
	client *mongo.Client
}

func NewMongoTxRunner(client *mongo.Client) *MongoTxRunner {
	return &MongoTxRunner{client: client}
}

func (r *MongoTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// SequentialTxRunner runs fn without transactional guarantees. The writes
// inside still execute in order; a failure mid-way can leave a partial
// state, which callers accept when the store cannot provide sessions.
type SequentialTxRunner struct{}

func (SequentialTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var (
	_ domain.TxRunner = (*MongoTxRunner)(nil)
	_ domain.TxRunner = SequentialTxRunner{}
)
