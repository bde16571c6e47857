package interlinker

import "sort"

// ZoneFor returns the first zone containing position, or the last zone when
// none does (the 100% boundary)
func ZoneFor(position float64, zones []Zone) Zone {
	for _, z := range zones {
		if z.Contains(position) {
			return z
		}
	}
	if len(zones) == 0 {
		return Zone{}
	}
	return zones[len(zones)-1]
}

// sortZonesByPriority returns a copy of zones ordered by ascending priority
func sortZonesByPriority(zones []Zone) []Zone {
	sorted := make([]Zone, len(zones))
	copy(sorted, zones)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}

// groupByZone buckets elements by their assigned zone, keeping document order
func groupByZone(elements []*BlockElement) map[string][]*BlockElement {
	groups := make(map[string][]*BlockElement)
	for _, el := range elements {
		groups[el.Zone] = append(groups[el.Zone], el)
	}
	return groups
}
