package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/repository"
)

func setupFeedServiceTest(t *testing.T) (*FeedService, *repository.GormProductRepository) {
	t.Helper()
	repo := repository.NewProductRepository(openServiceTestDB(t))
	return NewFeedService(repo, config.FeedConfig{PageSize: 20}), repo
}

func TestAssembleFeedExcludesArchived(t *testing.T) {
	svc, repo := setupFeedServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "p1", Name: "Mug", Age: 1 * time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "p2", Name: "Kikoi", Age: 2 * time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "p3", Name: "Basket", Age: 3 * time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "p4", Name: "Old", Status: "archived"})

	feed := svc.AssembleFeed(context.Background(), "global", "")
	assertIDs(t, feed, "p1", "p2", "p3")
}

func TestAssembleFeedEmptyStore(t *testing.T) {
	svc, _ := setupFeedServiceTest(t)
	feed := svc.AssembleFeed(context.Background(), "", "anything")
	if len(feed) != 0 {
		t.Fatalf("expected empty feed, got %v", productIDs(feed))
	}
}

func TestAssembleFeedSellerScopeIsFormatInsensitive(t *testing.T) {
	svc, repo := setupFeedServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "n1", SellerName: "Nike Shop KE", SellerHandle: "@Nike_Shop", Age: time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "o1", SellerName: "Other Store", SellerHandle: "@other", Age: 2 * time.Hour})

	assertIDs(t, svc.AssembleFeed(context.Background(), "nike-shop", ""), "n1")
	assertIDs(t, svc.AssembleFeed(context.Background(), "NIKE_SHOP", ""), "n1")
	assertIDs(t, svc.AssembleFeed(context.Background(), "adidas", ""))
}

func TestAssembleFeedScopeMatchesSellerNameSlug(t *testing.T) {
	svc, repo := setupFeedServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "m1", SellerName: "Mama Mboga Fresh", SellerHandle: "", Age: time.Hour})

	assertIDs(t, svc.AssembleFeed(context.Background(), "mama-mboga", ""), "m1")
}

// 子串匹配会把名称中包含范围词的其他卖家一并带出
func TestAssembleFeedScopeSubstringToleratesFalsePositives(t *testing.T) {
	svc, repo := setupFeedServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "k1", SellerName: "Kicks", SellerHandle: "@kicks", Age: time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "k2", SellerName: "Big Kicks Outlet", SellerHandle: "@bigkicks254", Age: 2 * time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "x1", SellerName: "Sandal Hub", SellerHandle: "@sandals", Age: 3 * time.Hour})

	feed := svc.AssembleFeed(context.Background(), "kicks", "")
	assertIDs(t, feed, "k1", "k2")
}

func TestAssembleFeedDeepLinkPromotesExistingEntry(t *testing.T) {
	svc, repo := setupFeedServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "a", Age: 1 * time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "b", Age: 2 * time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "c", Slug: "red-kicks", Age: 3 * time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "d", Age: 4 * time.Hour})

	assertIDs(t, svc.AssembleFeed(context.Background(), "", "c"), "c", "a", "b", "d")
	assertIDs(t, svc.AssembleFeed(context.Background(), "", "red-kicks"), "c", "a", "b", "d")
	assertIDs(t, svc.AssembleFeed(context.Background(), "", "a"), "a", "b", "c", "d")
}

func TestAssembleFeedDeepLinkFallsBackToSlugLookup(t *testing.T) {
	svc, repo := setupFeedServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "n1", SellerName: "Nike Shop", SellerHandle: "@nike_shop", Age: time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "z1", SellerName: "Zuri Beads", SellerHandle: "@zuri", Slug: "zuri-necklace", Age: 2 * time.Hour})

	feed := svc.AssembleFeed(context.Background(), "nike-shop", "zuri-necklace")
	assertIDs(t, feed, "z1", "n1")

	byID := svc.AssembleFeed(context.Background(), "nike-shop", "z1")
	assertIDs(t, byID, "z1", "n1")
}

func TestAssembleFeedDeepLinkSlugCaseMatchesOnAndOffPage(t *testing.T) {
	svc, repo := setupFeedServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "n", SellerName: "Nike", SellerHandle: "@nike", Age: time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "a", SellerName: "Kicks Ke", SellerHandle: "@kicks", Slug: "red-kicks", Age: 2 * time.Hour})

	assertIDs(t, svc.AssembleFeed(context.Background(), "", "RED-KICKS"), "a", "n")
	assertIDs(t, svc.AssembleFeed(context.Background(), "nike", "RED-KICKS"), "a", "n")
}

func TestAssembleFeedDeepLinkMissLeavesFeedUnchanged(t *testing.T) {
	svc, repo := setupFeedServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "a", Age: time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "gone", Slug: "gone-item", Status: "archived"})

	assertIDs(t, svc.AssembleFeed(context.Background(), "", "missing"), "a")
	assertIDs(t, svc.AssembleFeed(context.Background(), "", "gone-item"), "a")
	assertIDs(t, svc.AssembleFeed(context.Background(), "", "gone"), "a")
}

func TestAssembleFeedNeverContainsDuplicates(t *testing.T) {
	svc, repo := setupFeedServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "a", SellerName: "Kicks", SellerHandle: "@kicks", Slug: "a-slug", Age: 1 * time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "b", SellerName: "Zuri", SellerHandle: "@zuri", Slug: "b-slug", Age: 2 * time.Hour})
	seedProduct(t, repo, seedProductInput{ID: "c", SellerName: "Kicks Two", SellerHandle: "@kicks_two", Age: 3 * time.Hour})

	scopes := []string{"", "global", "kicks", "zuri", "nobody"}
	links := []string{"", "a", "b", "c", "a-slug", "b-slug", "missing"}
	for _, scope := range scopes {
		for _, link := range links {
			feed := svc.AssembleFeed(context.Background(), scope, link)
			seen := map[string]bool{}
			for _, product := range feed {
				if seen[product.ID] {
					t.Fatalf("duplicate id %s for scope=%q link=%q: %v", product.ID, scope, link, productIDs(feed))
				}
				seen[product.ID] = true
			}
		}
	}
}

type feedProductRepoStub struct {
	repository.ProductRepository
	active    []models.ProductDocument
	activeErr error
	byID      map[string]models.ProductDocument
	lookupErr error
}

func (s feedProductRepoStub) ListActive(_ context.Context, _ int) ([]models.ProductDocument, error) {
	return s.active, s.activeErr
}

func (s feedProductRepoStub) FindByID(_ context.Context, id string) (*models.ProductDocument, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if doc, ok := s.byID[id]; ok {
		return &doc, nil
	}
	return nil, nil
}

func (s feedProductRepoStub) FindBySlug(_ context.Context, _ string) (*models.ProductDocument, error) {
	return nil, s.lookupErr
}

func TestAssembleFeedFetchFailureYieldsEmptyScenario(t *testing.T) {
	linked := models.ProductDocument{ID: "linked", Data: models.JSON{"name": "Linked"}}
	svc := NewFeedService(feedProductRepoStub{
		activeErr: errors.New("store unavailable"),
		byID:      map[string]models.ProductDocument{"linked": linked},
	}, config.FeedConfig{})

	assertIDs(t, svc.AssembleFeed(context.Background(), "", ""))
	assertIDs(t, svc.AssembleFeed(context.Background(), "", "linked"), "linked")
}

func TestAssembleFeedLookupFailureIsSwallowed(t *testing.T) {
	svc := NewFeedService(feedProductRepoStub{
		active: []models.ProductDocument{
			{ID: "a", Data: models.JSON{"name": "A"}},
			{ID: "b", Data: models.JSON{"name": "B"}},
			{ID: "a", Data: models.JSON{"name": "A again"}},
		},
		lookupErr: errors.New("timeout"),
	}, config.FeedConfig{})

	feed := svc.AssembleFeed(context.Background(), "", "missing")
	assertIDs(t, feed, "a", "b")
	if feed[0].Name != "A" {
		t.Fatalf("first occurrence should win, got %q", feed[0].Name)
	}
}

func TestMoveToFrontKeepsRelativeOrder(t *testing.T) {
	products := []models.Product{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}
	assertIDs(t, moveToFront(products, 2), "3", "1", "2", "4")
	assertIDs(t, moveToFront(products, 0), "1", "2", "3", "4")
	assertIDs(t, products, "1", "2", "3", "4")
}
