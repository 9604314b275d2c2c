package domain

// CartLine — одна позиция снапшота корзины. Цена фиксируется в момент
// снапшота и дальше не перечитывается из каталога: изменение цены товара
// никогда не меняет уже оформляемый заказ.
type CartLine struct {
	SKU            string
	Name           string
	Qty            int32
	UnitPriceMinor int64
}

// LineTotalMinor возвращает стоимость позиции в минимальных денежных единицах.
func (l CartLine) LineTotalMinor() int64 {
	return int64(l.Qty) * l.UnitPriceMinor
}

// Cart — корзина пользователя до начала оформления. Порядок добавления
// позиций сохраняется и определяет порядок строк в заказе.
type Cart struct {
	CustomerID   string
	Lines        []CartLine
	DiscountCode string
}

// Add добавляет товар в корзину; повторное добавление того же SKU
// увеличивает количество существующей позиции.
func (c *Cart) Add(sku, name string, qty int32, unitPriceMinor int64) {
	for i := range c.Lines {
		if c.Lines[i].SKU == sku {
			c.Lines[i].Qty += qty
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{SKU: sku, Name: name, Qty: qty, UnitPriceMinor: unitPriceMinor})
}

// Remove удаляет позицию по SKU. Возвращает false, если позиции не было.
func (c *Cart) Remove(sku string) bool {
	for i := range c.Lines {
		if c.Lines[i].SKU == sku {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// IsEmpty сообщает, пуста ли корзина.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Snapshot копирует позиции корзины в независимый срез. Снапшот принадлежит
// заказу и не видит последующих мутаций корзины.
func (c *Cart) Snapshot() []CartLine {
	out := make([]CartLine, len(c.Lines))
	copy(out, c.Lines)
	return out
}
