// Package mongodb is the MongoDB store backend. Documents use the same
// collection and field names as the Node deployment (products, events,
// admins; camelCase fields, the admin hash under "password"), so an
// existing database can be served as is.
package mongodb

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mohamedmalandi/nova/internal/admin"
	"github.com/mohamedmalandi/nova/internal/catalog"
)

const (
	productsCollection = "products"
	eventsCollection   = "events"
	adminsCollection   = "admins"
)

// Store implements admin.Store, catalog.ProductRepository and
// catalog.EventRepository on a MongoDB database.
type Store struct {
	client   *mongo.Client
	products *mongo.Collection
	events   *mongo.Collection
	admins   *mongo.Collection
}

// Open connects to uri, selects database and ensures indexes.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongo")
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		products: db.Collection(productsCollection),
		events:   db.Collection(eventsCollection),
		admins:   db.Collection(adminsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.admins.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return errors.Wrap(err, "create admin indexes")
	}
	_, err = s.events.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "date", Value: 1}}})
	return errors.Wrap(err, "create event indexes")
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// objectID parses hex. ok is false for anything that is not an ObjectID.
func objectID(hex string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(hex)
	return oid, err == nil
}

// Admins

type adminDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d adminDoc) toAdmin() *admin.Admin {
	return &admin.Admin{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (s *Store) findAdmin(ctx context.Context, filter bson.M) (*admin.Admin, error) {
	var doc adminDoc
	err := s.admins.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, admin.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find admin")
	}
	return doc.toAdmin(), nil
}

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*admin.Admin, error) {
	return s.findAdmin(ctx, bson.M{"email": email})
}

func (s *Store) FindAdminByID(ctx context.Context, id string) (*admin.Admin, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, admin.ErrNotFound
	}
	return s.findAdmin(ctx, bson.M{"_id": oid})
}

func (s *Store) InsertAdmin(ctx context.Context, a *admin.Admin) error {
	now := time.Now().UTC()
	doc := adminDoc{
		ID:        primitive.NewObjectID(),
		Username:  a.Username,
		Email:     a.Email,
		Password:  a.PasswordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.admins.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return admin.ErrAlreadyExists
		}
		return errors.Wrap(err, "insert admin")
	}
	a.ID = doc.ID.Hex()
	a.CreatedAt, a.UpdatedAt = now, now
	return nil
}

func (s *Store) UpdateAdminPassword(ctx context.Context, id, hash string) error {
	oid, ok := objectID(id)
	if !ok {
		return admin.ErrNotFound
	}
	res, err := s.admins.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return errors.Wrap(err, "update admin password")
	}
	if res.MatchedCount == 0 {
		return admin.ErrNotFound
	}
	return nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]admin.Admin, error) {
	cur, err := s.admins.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "list admins")
	}
	var docs []adminDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode admins")
	}
	out := make([]admin.Admin, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toAdmin())
	}
	return out, nil
}

// Products

// active reads an isActive field. Documents written before the field
// existed are active, matching the schema default.
func active(v *bool) bool {
	return v == nil || *v
}

// activeFilter matches documents that active reports as true.
var activeFilter = bson.M{"$ne": false}

type productDoc struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Name        string              `bson:"name"`
	Type        string              `bson:"type"`
	Category    string              `bson:"category"`
	Price       float64             `bson:"price"`
	Description string              `bson:"description,omitempty"`
	Image       string              `bson:"image,omitempty"`
	Options     map[string][]string `bson:"options,omitempty"`
	IsActive    *bool               `bson:"isActive"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

func newProductDoc(p *catalog.Product) productDoc {
	return productDoc{
		Name:        p.Name,
		Type:        string(p.Type),
		Category:    string(p.Category),
		Price:       p.Price,
		Description: p.Description,
		Image:       p.Image,
		Options:     p.Options,
		IsActive:    &p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d productDoc) toProduct() catalog.Product {
	return catalog.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Type:        catalog.ProductType(d.Type),
		Category:    catalog.Category(d.Category),
		Price:       d.Price,
		Description: d.Description,
		Image:       d.Image,
		Options:     d.Options,
		IsActive:    active(d.IsActive),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// productQuery builds the find filter for f. Keywords are quoted so they
// match literally.
func productQuery(f catalog.ProductFilter) bson.M {
	q := bson.M{}
	if f.ActiveOnly {
		q["isActive"] = activeFilter
	}
	if f.Keyword != "" {
		q["name"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(f.Keyword), Options: "i"}}
	}
	return q
}

func (s *Store) ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	cur, err := s.products.Find(ctx, productQuery(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	out := make([]catalog.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toProduct())
	}
	return out, nil
}

func (s *Store) FindProduct(ctx context.Context, id string) (*catalog.Product, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, catalog.ErrNotFound
	}
	var doc productDoc
	err := s.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find product")
	}
	p := doc.toProduct()
	return &p, nil
}

func (s *Store) InsertProduct(ctx context.Context, p *catalog.Product) error {
	doc := newProductDoc(p)
	doc.ID = primitive.NewObjectID()
	if _, err := s.products.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "insert product")
	}
	p.ID = doc.ID.Hex()
	return nil
}

func (s *Store) ReplaceProduct(ctx context.Context, p *catalog.Product) error {
	oid, ok := objectID(p.ID)
	if !ok {
		return catalog.ErrNotFound
	}
	doc := newProductDoc(p)
	doc.ID = oid
	res, err := s.products.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return errors.Wrap(err, "replace product")
	}
	if res.MatchedCount == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return catalog.ErrNotFound
	}
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if res.DeletedCount == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// toggleUpdate flips isActive server side. A missing field reads as active,
// as in active.
var toggleUpdate = mongo.Pipeline{
	{{Key: "$set", Value: bson.D{
		{Key: "isActive", Value: bson.D{{Key: "$not", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$isActive", true}}}}}}},
		{Key: "updatedAt", Value: "$$NOW"},
	}}},
}

func (s *Store) ToggleProduct(ctx context.Context, id string) (*catalog.Product, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, catalog.ErrNotFound
	}
	var doc productDoc
	err := s.products.FindOneAndUpdate(ctx, bson.M{"_id": oid}, toggleUpdate,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "toggle product")
	}
	p := doc.toProduct()
	return &p, nil
}

// Events

type eventDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Date        time.Time          `bson:"date"`
	Image       string             `bson:"image,omitempty"`
	IsActive    *bool              `bson:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func newEventDoc(e *catalog.Event) eventDoc {
	return eventDoc{
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		Image:       e.Image,
		IsActive:    &e.IsActive,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (d eventDoc) toEvent() catalog.Event {
	return catalog.Event{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Date:        d.Date.UTC(),
		Image:       d.Image,
		IsActive:    active(d.IsActive),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func eventQuery(f catalog.EventFilter) bson.M {
	q := bson.M{}
	if f.ActiveOnly {
		q["isActive"] = activeFilter
	}
	return q
}

func (s *Store) ListEvents(ctx context.Context, filter catalog.EventFilter) ([]catalog.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.events.Find(ctx, eventQuery(filter), opts)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode events")
	}
	out := make([]catalog.Event, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEvent())
	}
	return out, nil
}

func (s *Store) FindEvent(ctx context.Context, id string) (*catalog.Event, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, catalog.ErrNotFound
	}
	var doc eventDoc
	err := s.events.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find event")
	}
	e := doc.toEvent()
	return &e, nil
}

func (s *Store) InsertEvent(ctx context.Context, e *catalog.Event) error {
	doc := newEventDoc(e)
	doc.ID = primitive.NewObjectID()
	if _, err := s.events.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "insert event")
	}
	e.ID = doc.ID.Hex()
	return nil
}

func (s *Store) ReplaceEvent(ctx context.Context, e *catalog.Event) error {
	oid, ok := objectID(e.ID)
	if !ok {
		return catalog.ErrNotFound
	}
	doc := newEventDoc(e)
	doc.ID = oid
	res, err := s.events.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return errors.Wrap(err, "replace event")
	}
	if res.MatchedCount == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return catalog.ErrNotFound
	}
	res, err := s.events.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "delete event")
	}
	if res.DeletedCount == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
