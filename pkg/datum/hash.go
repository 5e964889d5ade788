package datum

import (
	"pqleval/pkg/utils"
)

// Hash returns a hash consistent with Equal: equal datums hash alike.
// Numbers hash by their normalised decimal text so that 1, 1.0 and int64(1)
// collide. Struct and bag hashes are order-insensitive sums.
func Hash(d Datum) uint64 {
	h := utils.HashUint64(utils.HashString(""), uint64(rank(d.kind)))

	switch d.kind {
	case KindMissing, KindNull:
		return h
	case KindBool:
		return utils.HashUint64(h, uint64(d.n))
	case KindInt32, KindInt64:
		return utils.HashStringSeed(h, d.AsDecimal().String())
	case KindDecimal:
		return utils.HashStringSeed(h, d.dec.String())
	case KindString:
		return utils.HashStringSeed(h, d.s)
	case KindInterval:
		iv := *d.iv
		if iv.Qualifier.IsYearMonth() {
			return utils.HashUint64(h, uint64(iv.totalMonths()))
		}
		s, n := iv.totalSeconds()
		return utils.HashUint64(utils.HashUint64(h+1, uint64(s)), uint64(n))
	case KindList:
		for _, e := range d.elems {
			h = utils.Combine(h, Hash(e))
		}
		return h
	case KindStruct:
		var sum uint64
		for _, f := range d.fields {
			sum += utils.Mix(utils.Combine(utils.HashString(f.Name), Hash(f.Value)))
		}
		return utils.HashUint64(h, sum)
	case KindBag:
		var sum uint64
		for _, e := range d.elems {
			sum += utils.Mix(Hash(e))
		}
		return utils.HashUint64(h, sum)
	default:
		return h
	}
}

// HashSeq hashes an ordered sequence of datums, e.g. the values of a row or a
// group key.
func HashSeq(ds []Datum) uint64 {
	h := utils.HashString("seq")
	for _, d := range ds {
		h = utils.Combine(h, Hash(d))
	}
	return h
}
