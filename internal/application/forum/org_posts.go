package forum

import (
	"context"
	"sort"

	"serviceloop-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrgPostIDs returns the ids of posts whose tags contain name exactly.
func OrgPostIDs(posts []domain.Post, name string) []uuid.UUID {
	ids := []uuid.UUID{}
	if name == "" {
		return ids
	}
	for _, p := range posts {
		if p.Tags.Contains(name) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// OrgPosts loads the posts of an organization: those linked to it by id plus those
// tagged with its current name. Newest first. db may be a transaction.
func OrgPosts(ctx context.Context, db *gorm.DB, org *domain.Nonprofit) ([]domain.Post, error) {
	var all []domain.Post
	if err := db.WithContext(ctx).Find(&all).Error; err != nil {
		return nil, err
	}
	var linked []uuid.UUID
	if err := db.WithContext(ctx).Model(&domain.PostOrganization{}).
		Where("nonprofit_id = ?", org.ID).Pluck("post_id", &linked).Error; err != nil {
		return nil, err
	}
	keep := make(map[uuid.UUID]bool, len(linked))
	for _, id := range linked {
		keep[id] = true
	}
	for _, id := range OrgPostIDs(all, org.Name) {
		keep[id] = true
	}

	out := make([]domain.Post, 0, len(keep))
	for _, p := range all {
		if keep[p.ID] {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
