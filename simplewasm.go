package simplewasm

// Export and section names of the sample module.
const (
	ExportAdd      = "add"
	ExportMemStuff = "mem_stuff"
	SectionSymbol  = "SECTION"
	SectionName    = "test"
)

// memStuffStep is the amount added to the selected accumulator per iteration.
const memStuffStep int32 = 10

const sectionText = "Test section!"

// SectionLen is the byte length of the section payload.
const SectionLen = len(sectionText)

// SectionPayload returns a fresh copy of the bytes stored under SectionName.
func SectionPayload() []byte {
	return []byte(sectionText)
}

// Add returns the two's-complement 32-bit sum of a and b.
func Add(a, b int32) int32 {
	return a + b
}

// MemStuff runs the accumulator loop and returns a + b.
func MemStuff(arg int32) int32 {
	a, b := MemStuffTrace(arg)
	return a + b
}

// MemStuffTrace runs the accumulator loop and returns both accumulators.
// The first iteration feeds a, every later iteration feeds b.
func MemStuffTrace(arg int32) (a, b int32) {
	for x := int32(0); x < arg; x++ {
		acc := &b
		if x == 0 {
			acc = &a
		}
		*acc += memStuffStep
	}
	return a, b
}
