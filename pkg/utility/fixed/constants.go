package fixed

var (
	Zero    = FromInt(0)
	One     = FromInt(1)
	Two     = FromInt(2)
	Ten     = FromInt(10)
	Hundred = FromInt(100)

	NegOne = FromInt(-1)
)
