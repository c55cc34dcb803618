package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// AvatarColors represents the available avatar background colors
var AvatarColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
	"#F8C471", "#82E0AA", "#F1948A", "#D7BDE2", "#A9DFBF",
}

// GenerateAvatarWithInitials generates a DiceBear avatar URL seeded
// with the user's initials on a random background color.
func GenerateAvatarWithInitials(initials string) string {
	colorIndex, _ := rand.Int(rand.Reader, big.NewInt(int64(len(AvatarColors))))
	color := strings.TrimPrefix(AvatarColors[colorIndex.Int64()], "#")

	return fmt.Sprintf("https://api.dicebear.com/7.x/initials/svg?seed=%s&backgroundColor=%s",
		initials, color)
}

// GetInitialsFromName extracts up to two initials from a full name
func GetInitialsFromName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "U"
	}

	initials := strings.ToUpper(string([]rune(fields[0])[0]))
	if len(fields) > 1 {
		last := fields[len(fields)-1]
		initials += strings.ToUpper(string([]rune(last)[0]))
	}
	return initials
}
