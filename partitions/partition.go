package partitions

import (
	"fmt"
)

// Partition is a collection of work items that are processed together by one
// worker.
type Partition struct {
	ID int

	// Item membership
	Items    []int // Global item indices in this partition
	NumItems int   // Actual number of items
	MaxItems int   // Largest partition size in the layout
}

// Layout manages the complete decomposition of a range of work items
type Layout struct {
	Partitions []Partition

	// Global sizing information
	KpartMax      int // max(NumItems) across all partitions
	TotalItems    int // Sum of all items across partitions
	NumPartitions int

	// Item to partition mapping: item i belongs to partition IToP[i]
	IToP []int
}

// Range is a half-open interval [Start, End) of item indices
type Range struct {
	Start, End int
}

// Len is the number of items in the range
func (r Range) Len() int { return r.End - r.Start }

// GetPartition returns the partition containing item i
func (pl *Layout) GetPartition(item int) int {
	if item < 0 || item >= len(pl.IToP) {
		return -1
	}
	return pl.IToP[item]
}

// ValidateLayout checks partition consistency
func (pl *Layout) ValidateLayout() error {
	if len(pl.Partitions) != pl.NumPartitions {
		return fmt.Errorf("layout holds %d partitions, expected %d",
			len(pl.Partitions), pl.NumPartitions)
	}
	// Verify KpartMax
	actualMax, total := 0, 0
	for _, p := range pl.Partitions {
		if p.NumItems != len(p.Items) {
			return fmt.Errorf("partition %d: NumItems %d != len(Items) %d",
				p.ID, p.NumItems, len(p.Items))
		}
		if p.NumItems > actualMax {
			actualMax = p.NumItems
		}
		if p.MaxItems != pl.KpartMax {
			return fmt.Errorf("partition %d: MaxItems %d != KpartMax %d",
				p.ID, p.MaxItems, pl.KpartMax)
		}
		for _, item := range p.Items {
			if pl.GetPartition(item) != p.ID {
				return fmt.Errorf("partition %d lists item %d mapped to partition %d",
					p.ID, item, pl.GetPartition(item))
			}
		}
		total += p.NumItems
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d",
			actualMax, pl.KpartMax)
	}
	if total != pl.TotalItems || len(pl.IToP) != pl.TotalItems {
		return fmt.Errorf("partitions hold %d items, mapping holds %d, expected %d",
			total, len(pl.IToP), pl.TotalItems)
	}
	return nil
}

// Ranges returns the contiguous item range of every non-empty partition, in
// partition order. A layout whose mapping was edited into non-contiguous
// partitions fails.
func (pl *Layout) Ranges() ([]Range, error) {
	ranges := make([]Range, 0, pl.NumPartitions)
	for _, p := range pl.Partitions {
		if p.NumItems == 0 {
			continue
		}
		r := Range{Start: p.Items[0], End: p.Items[0] + 1}
		for _, item := range p.Items[1:] {
			if item != r.End {
				return nil, fmt.Errorf("partition %d is not contiguous at item %d", p.ID, item)
			}
			r.End++
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}
