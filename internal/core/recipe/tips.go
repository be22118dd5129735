package recipe

import (
	"math/rand"
)

var chefTips = []string{
	"For extra flavor, add a pinch of smoked paprika.",
	"Always taste and adjust seasoning before serving.",
	"Let the dish rest for a few minutes before serving to allow flavors to meld.",
	"Use fresh herbs for a brighter taste.",
	"Toast spices in a dry pan to enhance their aroma.",
	"Add a splash of acid (lemon juice or vinegar) to balance rich flavors.",
	"Don't overcrowd the pan when searing to get a better crust.",
	"Reserve some pasta water to adjust sauce consistency.",
	"Chop ingredients uniformly for even cooking.",
	"Use high-quality olive oil for finishing dishes.",
}

// ChefTips 回傳所有小撇步的副本
func ChefTips() []string {
	return append([]string(nil), chefTips...)
}

// RandomChefTip 隨機挑選一則小撇步
func RandomChefTip() string {
	return chefTips[rand.Intn(len(chefTips))]
}
