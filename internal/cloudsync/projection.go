package cloudsync

// OwnedVolumes expands a local owned count into the volume list the cloud
// stores. Ownership is assumed to be the contiguous prefix 1..n; gaps cannot
// be represented. n <= 0 yields an empty, non-nil list.
func OwnedVolumes(n int) []int {
	if n <= 0 {
		return []int{}
	}
	volumes := make([]int, n)
	for i := range volumes {
		volumes[i] = i + 1
	}
	return volumes
}

// CountOwned collapses a cloud volume list into the local owned count.
func CountOwned(volumes []int) int {
	return len(volumes)
}
