package service_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/tripcrew/tripcrew/internal/domain"
	"github.com/tripcrew/tripcrew/internal/repo"
)

// Hand-written test doubles for the repo interfaces. Each method is a
// function field; set only the ones your test needs. No mock generation
// library required for repos this small.

type mockUserRepo struct {
	upsert     func(ctx context.Context, user domain.User) (domain.User, error)
	getByID    func(ctx context.Context, id uuid.UUID) (domain.User, error)
	getByEmail func(ctx context.Context, email string) (domain.User, error)
}

func (m *mockUserRepo) Upsert(ctx context.Context, user domain.User) (domain.User, error) {
	return m.upsert(ctx, user)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return m.getByID(ctx, id)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return m.getByEmail(ctx, email)
}

var _ repo.UserRepo = (*mockUserRepo)(nil)

type mockTripRepo struct {
	createWithSetup func(ctx context.Context, trip domain.Trip, days []domain.TripDay) (domain.Trip, error)
	getByID         func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	getByCode       func(ctx context.Context, code string) (domain.Trip, error)
	listByUser      func(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error)
	archive         func(ctx context.Context, id uuid.UUID) error
	listDays        func(ctx context.Context, tripID uuid.UUID) ([]domain.TripDay, error)
}

func (m *mockTripRepo) CreateWithSetup(ctx context.Context, trip domain.Trip, days []domain.TripDay) (domain.Trip, error) {
	return m.createWithSetup(ctx, trip, days)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) GetByCode(ctx context.Context, code string) (domain.Trip, error) {
	return m.getByCode(ctx, code)
}
func (m *mockTripRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error) {
	return m.listByUser(ctx, userID)
}
func (m *mockTripRepo) Archive(ctx context.Context, id uuid.UUID) error {
	return m.archive(ctx, id)
}
func (m *mockTripRepo) ListDays(ctx context.Context, tripID uuid.UUID) ([]domain.TripDay, error) {
	return m.listDays(ctx, tripID)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

type mockMemberRepo struct {
	isMember func(ctx context.Context, tripID, userID uuid.UUID) (bool, error)
	isOwner  func(ctx context.Context, tripID, userID uuid.UUID) (bool, error)
	join     func(ctx context.Context, tripID, userID uuid.UUID) error
}

func (m *mockMemberRepo) IsMember(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	return m.isMember(ctx, tripID, userID)
}
func (m *mockMemberRepo) IsOwner(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	return m.isOwner(ctx, tripID, userID)
}
func (m *mockMemberRepo) Join(ctx context.Context, tripID, userID uuid.UUID) error {
	return m.join(ctx, tripID, userID)
}

var _ repo.MemberRepo = (*mockMemberRepo)(nil)

// allowAll returns a member repo that says yes to every membership check.
func allowAll() *mockMemberRepo {
	return &mockMemberRepo{
		isMember: func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return true, nil },
		isOwner:  func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return true, nil },
		join:     func(context.Context, uuid.UUID, uuid.UUID) error { return nil },
	}
}

type mockPostRepo struct {
	create      func(ctx context.Context, post domain.Post, stops []domain.CrawlLocation) (domain.Post, error)
	getByID     func(ctx context.Context, id uuid.UUID) (domain.Post, error)
	update      func(ctx context.Context, post domain.Post) (domain.Post, error)
	softDelete  func(ctx context.Context, id uuid.UUID) error
	countImages func(ctx context.Context, postID uuid.UUID) (int, error)
}

func (m *mockPostRepo) Create(ctx context.Context, post domain.Post, stops []domain.CrawlLocation) (domain.Post, error) {
	return m.create(ctx, post, stops)
}
func (m *mockPostRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Post, error) {
	return m.getByID(ctx, id)
}
func (m *mockPostRepo) Update(ctx context.Context, post domain.Post) (domain.Post, error) {
	return m.update(ctx, post)
}
func (m *mockPostRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.softDelete(ctx, id)
}
func (m *mockPostRepo) CountImages(ctx context.Context, postID uuid.UUID) (int, error) {
	return m.countImages(ctx, postID)
}

var _ repo.PostRepo = (*mockPostRepo)(nil)

type mockCommentRepo struct {
	create     func(ctx context.Context, comment domain.Comment) (domain.Comment, error)
	getByID    func(ctx context.Context, id uuid.UUID) (domain.Comment, error)
	softDelete func(ctx context.Context, id uuid.UUID) error
}

func (m *mockCommentRepo) Create(ctx context.Context, comment domain.Comment) (domain.Comment, error) {
	return m.create(ctx, comment)
}
func (m *mockCommentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Comment, error) {
	return m.getByID(ctx, id)
}
func (m *mockCommentRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.softDelete(ctx, id)
}

var _ repo.CommentRepo = (*mockCommentRepo)(nil)

type mockVoteRepo struct {
	add     func(ctx context.Context, postID, userID uuid.UUID) error
	remove  func(ctx context.Context, postID, userID uuid.UUID) error
	summary func(ctx context.Context, postID, viewerID uuid.UUID) (domain.VoteSummary, error)
}

func (m *mockVoteRepo) Add(ctx context.Context, postID, userID uuid.UUID) error {
	return m.add(ctx, postID, userID)
}
func (m *mockVoteRepo) Remove(ctx context.Context, postID, userID uuid.UUID) error {
	return m.remove(ctx, postID, userID)
}
func (m *mockVoteRepo) Summary(ctx context.Context, postID, viewerID uuid.UUID) (domain.VoteSummary, error) {
	return m.summary(ctx, postID, viewerID)
}

var _ repo.VoteRepo = (*mockVoteRepo)(nil)

type mockChallengeRepo struct {
	createForPost     func(ctx context.Context, c domain.Challenge) (domain.Challenge, error)
	createForLocation func(ctx context.Context, c domain.Challenge) (domain.Challenge, error)
	get               func(ctx context.Context, id uuid.UUID) (domain.Challenge, uuid.UUID, error)
	setCompletion     func(ctx context.Context, id uuid.UUID, completedBy *uuid.UUID) error
	delete            func(ctx context.Context, id uuid.UUID) error
}

func (m *mockChallengeRepo) CreateForPost(ctx context.Context, c domain.Challenge) (domain.Challenge, error) {
	return m.createForPost(ctx, c)
}
func (m *mockChallengeRepo) CreateForLocation(ctx context.Context, c domain.Challenge) (domain.Challenge, error) {
	return m.createForLocation(ctx, c)
}
func (m *mockChallengeRepo) Get(ctx context.Context, id uuid.UUID) (domain.Challenge, uuid.UUID, error) {
	return m.get(ctx, id)
}
func (m *mockChallengeRepo) SetCompletion(ctx context.Context, id uuid.UUID, completedBy *uuid.UUID) error {
	return m.setCompletion(ctx, id, completedBy)
}
func (m *mockChallengeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

var _ repo.ChallengeRepo = (*mockChallengeRepo)(nil)

type mockCrawlRepo struct {
	getLocation  func(ctx context.Context, id uuid.UUID) (domain.CrawlLocation, error)
	listByPost   func(ctx context.Context, postID uuid.UUID) ([]domain.CrawlLocation, error)
	reorder      func(ctx context.Context, postID uuid.UUID, order []uuid.UUID) error
	setCompleted func(ctx context.Context, id uuid.UUID, completed bool) error
}

func (m *mockCrawlRepo) GetLocation(ctx context.Context, id uuid.UUID) (domain.CrawlLocation, error) {
	return m.getLocation(ctx, id)
}
func (m *mockCrawlRepo) ListByPost(ctx context.Context, postID uuid.UUID) ([]domain.CrawlLocation, error) {
	return m.listByPost(ctx, postID)
}
func (m *mockCrawlRepo) Reorder(ctx context.Context, postID uuid.UUID, order []uuid.UUID) error {
	return m.reorder(ctx, postID, order)
}
func (m *mockCrawlRepo) SetCompleted(ctx context.Context, id uuid.UUID, completed bool) error {
	return m.setCompleted(ctx, id, completed)
}

var _ repo.CrawlRepo = (*mockCrawlRepo)(nil)

type mockImageRepo struct {
	createForPost     func(ctx context.Context, img domain.Image) (domain.Image, error)
	createForLocation func(ctx context.Context, img domain.Image) (domain.Image, error)
	countForLocation  func(ctx context.Context, locationID uuid.UUID) (int, error)
	get               func(ctx context.Context, id uuid.UUID) (domain.Image, uuid.UUID, error)
	delete            func(ctx context.Context, id uuid.UUID) error
}

func (m *mockImageRepo) CreateForPost(ctx context.Context, img domain.Image) (domain.Image, error) {
	return m.createForPost(ctx, img)
}
func (m *mockImageRepo) CreateForLocation(ctx context.Context, img domain.Image) (domain.Image, error) {
	return m.createForLocation(ctx, img)
}
func (m *mockImageRepo) CountForLocation(ctx context.Context, locationID uuid.UUID) (int, error) {
	return m.countForLocation(ctx, locationID)
}
func (m *mockImageRepo) Get(ctx context.Context, id uuid.UUID) (domain.Image, uuid.UUID, error) {
	return m.get(ctx, id)
}
func (m *mockImageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

var _ repo.ImageRepo = (*mockImageRepo)(nil)

type mockFeedRepo struct {
	listMembers    func(ctx context.Context, tripID uuid.UUID) ([]domain.UserRef, error)
	listPosts      func(ctx context.Context, tripID uuid.UUID) ([]domain.Post, map[uuid.UUID]domain.UserRef, error)
	listComments   func(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.CommentView, error)
	listVotes      func(ctx context.Context, postIDs []uuid.UUID) ([]repo.VoteRow, error)
	listImages     func(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.Image, error)
	listChallenges func(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.Challenge, error)
	listCrawlStops func(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.CrawlStopView, error)
}

func (m *mockFeedRepo) ListMembers(ctx context.Context, tripID uuid.UUID) ([]domain.UserRef, error) {
	return m.listMembers(ctx, tripID)
}
func (m *mockFeedRepo) ListPosts(ctx context.Context, tripID uuid.UUID) ([]domain.Post, map[uuid.UUID]domain.UserRef, error) {
	return m.listPosts(ctx, tripID)
}
func (m *mockFeedRepo) ListComments(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.CommentView, error) {
	return m.listComments(ctx, postIDs)
}
func (m *mockFeedRepo) ListVotes(ctx context.Context, postIDs []uuid.UUID) ([]repo.VoteRow, error) {
	return m.listVotes(ctx, postIDs)
}
func (m *mockFeedRepo) ListImages(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.Image, error) {
	return m.listImages(ctx, postIDs)
}
func (m *mockFeedRepo) ListChallenges(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.Challenge, error) {
	return m.listChallenges(ctx, postIDs)
}
func (m *mockFeedRepo) ListCrawlStops(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.CrawlStopView, error) {
	return m.listCrawlStops(ctx, postIDs)
}

var _ repo.FeedRepo = (*mockFeedRepo)(nil)
