package numerology

// letterValues maps letters to their numerological digit. The Russian
// table and the Chaldean English table are merged into one lookup;
// characters outside either alphabet contribute 0.
var letterValues = map[rune]int{
	// Russian alphabet.
	'а': 1, 'б': 2, 'в': 3, 'г': 4, 'д': 5, 'е': 6, 'ё': 6, 'ж': 7, 'з': 8, 'и': 9,
	'й': 1, 'к': 2, 'л': 3, 'м': 4, 'н': 5, 'о': 6, 'п': 7, 'р': 8, 'с': 9, 'т': 1,
	'у': 2, 'ф': 3, 'х': 4, 'ц': 5, 'ч': 6, 'ш': 7, 'щ': 8, 'ъ': 9, 'ы': 1, 'ь': 2,
	'э': 3, 'ю': 4, 'я': 5,
	// Chaldean system, English alphabet.
	'a': 1, 'b': 2, 'c': 3, 'd': 4, 'e': 5, 'f': 6, 'g': 7, 'h': 8, 'i': 9,
	'j': 1, 'k': 2, 'l': 3, 'm': 4, 'n': 5, 'o': 6, 'p': 7, 'q': 8, 'r': 9,
	's': 1, 't': 2, 'u': 3, 'v': 4, 'w': 5, 'x': 6, 'y': 7, 'z': 8,
}

// LetterValue returns the digit for a single already-lowercased rune,
// or 0 when the rune has no numerological value.
func LetterValue(r rune) int {
	return letterValues[r]
}
