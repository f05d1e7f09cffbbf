package review

import "fmt"

// RatingWriter записывает пересчитанную оценку плага
type RatingWriter interface {
	SetRating(id int, rating float64) error
}

// Aggregator пересчитывает оценку плага по одобренным отзывам
type Aggregator struct {
	queue  *Queue
	writer RatingWriter
}

// NewAggregator создает агрегатор
func NewAggregator(queue *Queue, writer RatingWriter) *Aggregator {
	return &Aggregator{queue: queue, writer: writer}
}

// Recompute записывает среднее одобренных оценок в плаг.
// Без одобренных отзывов оценка не меняется, возвращается changed=false.
func (a *Aggregator) Recompute(plugID int) (rating float64, changed bool, err error) {
	approved := a.queue.ApprovedFor(plugID)
	ratings := make([]int, 0, len(approved))
	for _, r := range approved {
		ratings = append(ratings, r.Rating)
	}

	rating, ok := Mean(ratings)
	if !ok {
		return 0, false, nil
	}
	if err := a.writer.SetRating(plugID, rating); err != nil {
		return 0, false, fmt.Errorf("failed to set rating for plug %d: %w", plugID, err)
	}
	return rating, true, nil
}

// Mean возвращает среднее, округленное до десятых (половина от нуля).
// Считается в целых числах без погрешности float64.
func Mean(ratings []int) (float64, bool) {
	n := len(ratings)
	if n == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}

	tenths := (20*abs(sum) + n) / (2 * n)
	if sum < 0 {
		tenths = -tenths
	}
	return float64(tenths) / 10, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
