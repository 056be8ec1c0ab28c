package application

import "math/rand/v2"

// defaultWordPairs is the built-in pool of citizen/decoy word pairs. Only the
// first word of a pair is handed to the citizens; the second exists so future
// variants can hand impostors a close decoy.
var defaultWordPairs = [][2]string{
	{"Chat", "Chien"},
	{"Pomme", "Poire"},
	{"Soleil", "Lune"},
	{"Voiture", "Moto"},
	{"Football", "Basketball"},
	{"Pizza", "Hamburger"},
	{"Guitare", "Piano"},
	{"Ete", "Hiver"},
	{"Cafe", "The"},
	{"Montagne", "Mer"},
}

func randomSecretWord() string {
	pair := defaultWordPairs[rand.IntN(len(defaultWordPairs))]
	return pair[0]
}
