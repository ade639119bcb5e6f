package customer

import (
	"testing"

	"kunden-service/internal/domain/customer"

	"github.com/stretchr/testify/assert"
)

func sample() []customer.Customer {
	return []customer.Customer{
		{ID: 1, Product: customer.ProductNone, Tags: []string{customer.TagInterested}},
		{ID: 2, Product: customer.ProductExpertAdvisor, Tags: []string{customer.TagLITEA, customer.TagPurchased}},
		{ID: 3, Product: customer.ProductSignals, Tags: []string{customer.TagLITSignal}},
		{ID: 4, Product: customer.ProductExpertAdvisor, Tags: []string{}},
		{ID: 5, Product: customer.ProductBundle, Tags: []string{customer.TagLITEA, customer.TagLITSignal}},
	}
}

func ids(cs []customer.Customer) []int64 {
	out := []int64{}
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		tags     []string
		products []customer.Product
		want     []int64
	}{
		{"no filters", nil, nil, []int64{1, 2, 3, 4, 5}},
		{"any tag matches", []string{customer.TagLITEA, customer.TagLITSignal}, nil, []int64{2, 3, 5}},
		{"product membership", nil, []customer.Product{customer.ProductExpertAdvisor}, []int64{2, 4}},
		{"both filters conjunctive", []string{customer.TagLITEA}, []customer.Product{customer.ProductExpertAdvisor}, []int64{2}},
		{"unknown tag matches nothing", []string{"VIP"}, nil, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(sample(), tt.tags, tt.products)))
		})
	}
}

func TestFilter_EmptyFiltersReturnInputUnchanged(t *testing.T) {
	in := sample()
	assert.Equal(t, in, Filter(in, nil, nil))
	assert.Equal(t, in, Filter(in, []string{}, []customer.Product{}))
}

func TestFilter_Idempotent(t *testing.T) {
	tags := []string{customer.TagLITSignal, customer.TagPurchased}
	products := []customer.Product{customer.ProductExpertAdvisor, customer.ProductSignals}

	once := Filter(sample(), tags, products)
	assert.Equal(t, once, Filter(once, tags, products))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	in := sample()
	_ = Filter(in, []string{customer.TagLITEA}, nil)
	assert.Equal(t, sample(), in)
}
