package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"repoquery/internal/models"
	"repoquery/internal/service"
)

var _ service.EmbeddingStore = (*Mongo)(nil)

// vectorIndex is the Atlas Vector Search index expected on every
// repository collection, covering the "vector" field with cosine
// similarity.
const vectorIndex = "vector_index"

// Mongo is an EmbeddingStore on MongoDB Atlas. Each repository gets
// its own collection named after the repository ID; chunk similarity
// uses the $vectorSearch aggregation stage.
type Mongo struct {
	db *mongo.Database
}

// chunkDoc is the stored shape of one embedded chunk.
type chunkDoc struct {
	Path    string    `bson:"path"`
	Content string    `bson:"content"`
	Vector  []float32 `bson:"vector"`
}

// NewMongo wires the store to a database handle.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

// UpsertRepoEmbeddings drops the repository's collection and inserts
// every chunk fresh. A failed run leaves the collection absent, never
// half-populated.
func (m *Mongo) UpsertRepoEmbeddings(ctx context.Context, emb models.RepositoryEmbeddings) error {
	col := m.db.Collection(emb.RepoID)
	if err := col.Drop(ctx); err != nil {
		return err
	}

	docs := make([]interface{}, len(emb.Chunks))
	for i, c := range emb.Chunks {
		docs[i] = chunkDoc{
			Path:    c.Path,
			Content: c.Content,
			Vector:  c.Vector,
		}
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := col.InsertMany(ctx, docs)
	return err
}

// RelevantPaths runs a K-NN search over the repository's chunks and
// collapses the hits to up to k distinct paths in similarity order.
// The search over-fetches because top chunks often share a file.
func (m *Mongo) RelevantPaths(ctx context.Context, repo models.Repository, queryVec []float32, k int) ([]string, error) {
	exists, err := m.Exists(ctx, repo)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.ErrCollectionNotFound
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: vectorIndex},
			{Key: "queryVector", Value: queryVec},
			{Key: "path", Value: "vector"},
			{Key: "numCandidates", Value: k * 100},
			{Key: "limit", Value: k * 10},
		}}},
		{{Key: "$project", Value: bson.M{"path": 1}}},
	}

	cur, err := m.db.Collection(repo.ID()).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var hits []struct {
		Path string `bson:"path"`
	}
	if err := cur.All(ctx, &hits); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, k)
	paths := make([]string, 0, k)
	for _, h := range hits {
		if _, dup := seen[h.Path]; dup {
			continue
		}
		seen[h.Path] = struct{}{}
		paths = append(paths, h.Path)
		if len(paths) == k {
			break
		}
	}
	return paths, nil
}

// AllPaths returns the distinct file paths of the repository's
// collection, capped at limit.
func (m *Mongo) AllPaths(ctx context.Context, repo models.Repository, limit int) ([]string, error) {
	exists, err := m.Exists(ctx, repo)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.ErrCollectionNotFound
	}

	raw, err := m.db.Collection(repo.ID()).Distinct(ctx, "path", bson.M{})
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(raw))
	for _, v := range raw {
		p, ok := v.(string)
		if !ok {
			continue
		}
		paths = append(paths, p)
		if len(paths) == limit {
			break
		}
	}
	return paths, nil
}

// Exists reports whether a collection for the repository is present.
func (m *Mongo) Exists(ctx context.Context, repo models.Repository) (bool, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.M{"name": repo.ID()})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}
