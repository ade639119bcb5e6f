package customer

import "kunden-service/internal/domain/customer"

// Filter keeps customers carrying at least one of tags and whose product is
// one of products. An empty set disables that half of the filter. The input is
// never modified and order is preserved.
func Filter(customers []customer.Customer, tags []string, products []customer.Product) []customer.Customer {
	tagSet := make(map[string]bool, len(tags))
	for _, t := range tags {
		tagSet[t] = true
	}
	productSet := make(map[customer.Product]bool, len(products))
	for _, p := range products {
		productSet[p] = true
	}

	out := make([]customer.Customer, 0, len(customers))
	for _, c := range customers {
		if len(productSet) > 0 && !productSet[c.Product] {
			continue
		}
		if len(tagSet) > 0 && !anyTag(c.Tags, tagSet) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func anyTag(tags []string, want map[string]bool) bool {
	for _, t := range tags {
		if want[t] {
			return true
		}
	}
	return false
}
