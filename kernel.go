/*
Copyright © 2019 the InMAP authors.
This file is part of rainfarm.

rainfarm is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rainfarm is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rainfarm.  If not, see <http://www.gnu.org/licenses/>.
*/

package rainfarm

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/ctessum/requestcache"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// kernelRadius returns the radius in fine grid cells of a disc with
// about the same area as one coarse grid cell.
func kernelRadius(factor int) int {
	return int(math.Round(float64(factor) / math.Sqrt(math.Pi)))
}

// TopHat returns a normalized disc-shaped averaging kernel whose
// footprint approximates one coarse grid cell when a field is
// upsampled by factor. The kernel is square with side 2r+1, where
// r = round(factor/√π); cells within r of the center have equal weight
// and the weights sum to one.
func TopHat(factor int) *mat.Dense {
	return mat.DenseCopyOf(topHat(factor))
}

func newTopHat(factor int) *mat.Dense {
	rad := kernelRadius(factor)
	size := 2*rad + 1
	data := make([]float64, size*size)
	for i := -rad; i <= rad; i++ {
		for j := -rad; j <= rad; j++ {
			if i*i+j*j <= rad*rad {
				data[(i+rad)*size+j+rad] = 1
			}
		}
	}
	floats.Scale(1/floats.Sum(data), data)
	return mat.NewDense(size, size, data)
}

var (
	kernelCache     *requestcache.Cache
	kernelCacheOnce sync.Once
)

// topHat returns a possibly cached kernel, which must not be modified.
func topHat(factor int) *mat.Dense {
	kernelCacheOnce.Do(func() {
		kernelCache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			return newTopHat(request.(int)), nil
		}, 1, requestcache.Deduplicate(), requestcache.Memory(8))
	})
	req := kernelCache.NewRequest(context.TODO(), factor, fmt.Sprint(factor))
	k, err := req.Result()
	if err != nil {
		panic(err) // newTopHat does not fail.
	}
	return k.(*mat.Dense)
}
