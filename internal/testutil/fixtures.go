package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mfalkner/trackline/internal/domain"
	"github.com/google/uuid"
)

var testShortIDCounter atomic.Int64

// Project options
type ProjectOption func(*domain.Project)

func WithTargetDate(d time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.TargetDate = &d
	}
}

func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

func defaultShortID(name string) string {
	upper := strings.ToUpper(name)
	var letters []byte
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			letters = append(letters, upper[i])
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	n := testShortIDCounter.Add(1)
	return fmt.Sprintf("%s%02d", string(letters), n)
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:        uuid.New().String(),
		ShortID:   defaultShortID(name),
		Name:      name,
		Status:    domain.ProjectActive,
		StartDate: now.AddDate(0, -1, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlanNode options
type NodeOption func(*domain.PlanNode)

func WithItemType(t domain.ItemType) NodeOption {
	return func(n *domain.PlanNode) {
		n.ItemType = t
	}
}

func WithParentID(id string) NodeOption {
	return func(n *domain.PlanNode) {
		n.ParentID = &id
	}
}

func WithLink(l domain.EntityLink) NodeOption {
	return func(n *domain.PlanNode) {
		n.Link = l
	}
}

func WithOrderIndex(i int) NodeOption {
	return func(n *domain.PlanNode) {
		n.OrderIndex = i
	}
}

func NewTestNode(projectID, title string, opts ...NodeOption) *domain.PlanNode {
	now := time.Now().UTC()
	n := &domain.PlanNode{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Title:     title,
		ItemType:  domain.ItemTask,
		Link:      domain.NoLink,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Milestone options
type MilestoneOption func(*domain.Milestone)

func WithEndDate(d time.Time) MilestoneOption {
	return func(m *domain.Milestone) {
		m.EndDate = &d
	}
}

func WithForecastEnd(d time.Time) MilestoneOption {
	return func(m *domain.Milestone) {
		m.ForecastEnd = &d
	}
}

func WithBaselineWindow(start, end time.Time, billable float64) MilestoneOption {
	return func(m *domain.Milestone) {
		m.BaselineStart = &start
		m.BaselineEnd = &end
		m.BaselineBillable = &billable
	}
}

func WithSignatures(supplier, customer *domain.Signature) MilestoneOption {
	return func(m *domain.Milestone) {
		m.SupplierSignature = supplier
		m.CustomerSignature = customer
		m.Locked = supplier != nil && customer != nil
	}
}

func NewTestMilestone(projectID, name string, opts ...MilestoneOption) *domain.Milestone {
	now := time.Now().UTC()
	m := &domain.Milestone{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Deliverable options
type DeliverableOption func(*domain.Deliverable)

func WithTargetDateDeliverable(d time.Time) DeliverableOption {
	return func(dl *domain.Deliverable) {
		dl.TargetDate = &d
	}
}

func NewTestDeliverable(projectID, milestoneID, name string, opts ...DeliverableOption) *domain.Deliverable {
	now := time.Now().UTC()
	d := &domain.Deliverable{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		MilestoneID: milestoneID,
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewTestSignature builds a signature stamped at the given time.
func NewTestSignature(signerID, signerName string, at time.Time) *domain.Signature {
	return &domain.Signature{SignerID: signerID, SignerName: signerName, SignedAt: at}
}
