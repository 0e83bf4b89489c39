/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
)

const sizePrefixes = "kMGTPE"

// humanReadableSize formats n bytes with SI prefixes, e.g. "1.2 kB".
func humanReadableSize[T ~int | ~int64](n T) string {
	if n < 1000 {
		return fmt.Sprintf("%d B", int64(n))
	}

	size, prefix := float64(n)/1000, 0
	for size >= 1000 && prefix < len(sizePrefixes)-1 {
		size /= 1000
		prefix++
	}

	return fmt.Sprintf("%.1f %cB", size, sizePrefixes[prefix])
}
