// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package geo

import (
	"math"
	"sort"
	"strings"
)

// kmPerRadian bounds the latitude sweep: great-circle distance is never
// shorter than the latitude difference alone.
const kmPerRadian = EarthRadiusKm

// City is the clustering view of a persisted city.
type City struct {
	ID        string
	Name      string
	CountryID string
	Latitude  *float64
	Longitude *float64
}

// located reports whether the city carries a usable coordinate pair.
func (city City) located() bool {
	return city.Latitude != nil && city.Longitude != nil && ValidLatLng(*city.Latitude, *city.Longitude)
}

// # Clustering

/*
ClusterNearbyCities groups cities into connected components of the graph whose
edges join two cities of the same country at most thresholdKm apart.

Description: Membership is transitive: A-B and B-C within range put A, B and C
together even when A-C is not. Countries are a hard partition. Cities without
coordinates are always singletons.

Clusters are returned in order of their first member's position in the input,
members in input order.
*/
func ClusterNearbyCities(cities []City, thresholdKm float64) [][]string {
	if len(cities) == 0 {
		return [][]string{}
	}

	components := newUnionFind(len(cities))

	// Partition by country, then sweep by latitude within each partition
	byCountry := make(map[string][]int)
	for index, city := range cities {
		if city.located() {
			byCountry[city.CountryID] = append(byCountry[city.CountryID], index)
		}
	}

	maxLatitudeGap := thresholdKm / kmPerRadian * 180 / math.Pi

	for _, members := range byCountry {
		sort.SliceStable(members, func(i, j int) bool {
			return *cities[members[i]].Latitude < *cities[members[j]].Latitude
		})

		for i, left := range members {
			for _, right := range members[i+1:] {
				if *cities[right].Latitude-*cities[left].Latitude > maxLatitudeGap {
					break
				}
				distance := distanceKm(
					*cities[left].Latitude, *cities[left].Longitude,
					*cities[right].Latitude, *cities[right].Longitude,
				)
				if distance <= thresholdKm {
					components.union(left, right)
				}
			}
		}
	}

	clusters := make([][]string, 0)
	position := make(map[int]int)
	for index, city := range cities {
		root := components.find(index)
		slot, seen := position[root]
		if !seen {
			slot = len(clusters)
			position[root] = slot
			clusters = append(clusters, nil)
		}
		clusters[slot] = append(clusters[slot], city.ID)
	}

	return clusters
}

// # Aggregation

// CityStat is one city with its event count.
type CityStat struct {
	City
	Count int
}

// CityCount is a cluster member as reported to clients.
type CityCount struct {
	CityID   string `json:"city_id"`
	CityName string `json:"city_name"`
	Count    int    `json:"count"`
}

// ClusterStat is a primary city with the summed count of its whole cluster.
type ClusterStat struct {
	CityID    string      `json:"city_id"`
	CityName  string      `json:"city_name"`
	Count     int         `json:"count"`
	Subcities []CityCount `json:"subcities"`
}

/*
AggregateStatsByCluster clusters the cities behind stats and folds each cluster
into one entry.

Description: The member with the highest individual count becomes the primary.
Ties go to the case-insensitively smallest name, then the smallest id. The
other members are listed as subcities in the same order. The result is sorted
by total count descending, ties by primary name.
*/
func AggregateStatsByCluster(stats []CityStat, thresholdKm float64) []ClusterStat {
	if len(stats) == 0 {
		return []ClusterStat{}
	}

	cities := make([]City, len(stats))
	byID := make(map[string]CityStat, len(stats))
	for index, stat := range stats {
		cities[index] = stat.City
		byID[stat.ID] = stat
	}

	clusters := ClusterNearbyCities(cities, thresholdKm)
	result := make([]ClusterStat, 0, len(clusters))

	for _, memberIDs := range clusters {
		members := make([]CityCount, 0, len(memberIDs))
		total := 0
		for _, id := range memberIDs {
			stat := byID[id]
			members = append(members, CityCount{CityID: stat.ID, CityName: stat.Name, Count: stat.Count})
			total += stat.Count
		}

		sort.SliceStable(members, func(i, j int) bool { return ranksBefore(members[i], members[j]) })

		result = append(result, ClusterStat{
			CityID:    members[0].CityID,
			CityName:  members[0].CityName,
			Count:     total,
			Subcities: members[1:],
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return strings.ToLower(result[i].CityName) < strings.ToLower(result[j].CityName)
	})

	return result
}

// ranksBefore orders cluster members for primary selection.
func ranksBefore(a, b CityCount) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	nameA, nameB := strings.ToLower(a.CityName), strings.ToLower(b.CityName)
	if nameA != nameB {
		return nameA < nameB
	}
	return a.CityID < b.CityID
}

// # Union-Find

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(size int) *unionFind {
	parent := make([]int, size)
	for index := range parent {
		parent[index] = index
	}
	return &unionFind{parent: parent, rank: make([]int, size)}
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	rootA, rootB := uf.find(a), uf.find(b)
	if rootA == rootB {
		return
	}
	switch {
	case uf.rank[rootA] < uf.rank[rootB]:
		uf.parent[rootA] = rootB
	case uf.rank[rootA] > uf.rank[rootB]:
		uf.parent[rootB] = rootA
	default:
		uf.parent[rootB] = rootA
		uf.rank[rootA]++
	}
}
