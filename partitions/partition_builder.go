package partitions

import (
	"fmt"
	"math"
)

// Builder constructs a block partition layout over NumItems work items.
// Every partition holds a contiguous run of items.
type Builder struct {
	NumItems            int
	TargetPartitionSize int // Desired items per partition
}

// BuildPartitions creates a partition layout
func (pb *Builder) BuildPartitions() (*Layout, error) {
	if pb.NumItems < 0 {
		return nil, fmt.Errorf("invalid item count %d", pb.NumItems)
	}
	if pb.TargetPartitionSize <= 0 {
		return nil, fmt.Errorf("invalid target partition size %d", pb.TargetPartitionSize)
	}

	numPartitions := pb.calculateNumPartitions()
	iToP := pb.partitionItems(numPartitions)
	partitions := pb.createPartitions(iToP, numPartitions)

	kpartMax := calculateKpartMax(partitions)
	for i := range partitions {
		partitions[i].MaxItems = kpartMax
	}

	layout := &Layout{
		Partitions:    partitions,
		KpartMax:      kpartMax,
		TotalItems:    pb.NumItems,
		NumPartitions: numPartitions,
		IToP:          iToP,
	}
	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

// calculateNumPartitions determines the partition count from the target size
func (pb *Builder) calculateNumPartitions() int {
	numPartitions := int(math.Ceil(float64(pb.NumItems) / float64(pb.TargetPartitionSize)))
	if numPartitions < 1 {
		numPartitions = 1
	}
	return numPartitions
}

// partitionItems assigns consecutive items to partitions
func (pb *Builder) partitionItems(numPartitions int) []int {
	iToP := make([]int, pb.NumItems)
	itemsPerPartition := int(math.Ceil(float64(pb.NumItems) / float64(numPartitions)))
	for i := range iToP {
		iToP[i] = i / itemsPerPartition
		if iToP[i] >= numPartitions {
			iToP[i] = numPartitions - 1
		}
	}
	return iToP
}

// createPartitions builds partition structures from item assignments
func (pb *Builder) createPartitions(iToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i] = Partition{ID: i, Items: make([]int, 0)}
	}
	for item, part := range iToP {
		partitions[part].Items = append(partitions[part].Items, item)
		partitions[part].NumItems++
	}
	return partitions
}

// calculateKpartMax finds the maximum item count across all partitions
func calculateKpartMax(partitions []Partition) int {
	kpartMax := 0
	for _, p := range partitions {
		if p.NumItems > kpartMax {
			kpartMax = p.NumItems
		}
	}
	return kpartMax
}

// SlabLayout splits [0, extent) into contiguous slabs for a pool of threads.
// The grain is max(1, extent/threads), so a layout may hold more slabs than
// threads.
func SlabLayout(extent, threads int) ([]Range, error) {
	if threads <= 0 {
		return nil, fmt.Errorf("invalid thread count %d", threads)
	}
	grain := extent / threads
	if grain < 1 {
		grain = 1
	}
	pb := &Builder{NumItems: extent, TargetPartitionSize: grain}
	layout, err := pb.BuildPartitions()
	if err != nil {
		return nil, err
	}
	return layout.Ranges()
}
